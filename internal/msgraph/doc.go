// Package msgraph wraps the Microsoft Graph SDK for the calls graphplanner
// makes: the signed-in user, calendar views, event creation and the items of
// a SharePoint list.
//
// Requests are built by msgraph-sdk-go request builders and authenticated
// from an oauth2.TokenSource. Collections are drained with the SDK core page
// iterator. SDK models are converted to the plain structs of this package,
// and OData errors become *RemoteRequestError.
//
//	client, err := msgraph.NewClient(ctx, ts)
//	user, err := client.Me(ctx, "displayName", "mail")
package msgraph
