// Package graph is the data-access layer for the signed-in user's profile,
// calendar and the SharePoint task list.
//
// A Service issues one logical Graph request per operation. It obtains its
// msgraph.Client from a ClientHolder, which builds the client once from the
// authentication provider it is first given and reuses it afterwards.
// Re-authentication is an explicit ClientHolder.Reauthenticate call.
//
// Tasks are stored as SharePoint list items. The mapping between Task and the
// item's fields is:
//
//	Task.TaskName    <-> fields.TaskName2
//	Task.Description <-> fields.Description
//	Task.StartDate   <-> fields.StartDate
//	Task.DueDate     <-> fields.DueDate
//	Task.Status      <-> fields.Status
//
// Every exported operation returns nil or a *Error whose Kind tells callers
// whether authentication, the remote service, the returned data or the
// caller's input was at fault.
package graph
