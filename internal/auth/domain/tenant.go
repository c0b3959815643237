package domain

import "time"

type TenantConfig struct {
	TwoFactorRequired bool
}

type Tenant struct {
	ID        string
	Name      string
	Active    bool
	Config    TenantConfig
	CreatedAt time.Time
	UpdatedAt time.Time
}
