package instrumentation

import "strings"

// Operation label values of graph_api_* metrics. Service and status values
// live in config.go.
const (
	OperationList   = "list"
	OperationGet    = "get"
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// ExtractUserDomain reduces a username to its domain so it can be used as a
// label or log field. Anything that is not "local@domain" yields "unknown".
func ExtractUserDomain(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return "unknown"
	}
	return domain
}
