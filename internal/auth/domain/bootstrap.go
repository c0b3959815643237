package domain

// BootstrapData describes the first super admin created on an empty system.
type BootstrapData struct {
	AdminEmail    string
	AdminPassword string
}
