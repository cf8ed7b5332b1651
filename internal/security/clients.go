package security

// Client is an API consumer allowed to request tokens.
type Client struct {
	Secret  string
	Perms   []string
	Enabled bool
}

// Clients is the static registry. The dashboard client reads and writes
// orders; the admin console additionally drives status transitions.
var Clients = map[string]Client{
	"dashboard": {
		Secret:  "dashboard-secret",
		Perms:   []string{"orders.read", "orders.write"},
		Enabled: true,
	},
	"admin-console": {
		Secret:  "admin-secret",
		Perms:   []string{"orders.read", "orders.write", "orders.admin"},
		Enabled: true,
	},
}
