package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/verticelabs/authcore/internal/auth/app"
	"github.com/verticelabs/authcore/internal/auth/domain"
	"github.com/verticelabs/authcore/internal/auth/service"
	"github.com/verticelabs/authcore/internal/auth/store"
	"github.com/verticelabs/authcore/pkg/cryptox"
)

// SeedFile is the YAML document accepted by `authctl seed`. Users refer to
// tenants by name; a user without a tenant must be a super admin.
//
//	tenants:
//	  - name: Acme
//	    twoFactorRequired: true
//	users:
//	  - email: root@example.com
//	    password: change-me-now
//	    roles: [SUPER_ADMIN]
//	  - email: alice@acme.test
//	    password: change-me-now
//	    tenant: Acme
//	    roles: [TENANT_ADMIN]
type SeedFile struct {
	Tenants []SeedTenant `yaml:"tenants"`
	Users   []SeedUser   `yaml:"users"`
}

type SeedTenant struct {
	Name              string `yaml:"name"`
	TwoFactorRequired bool   `yaml:"twoFactorRequired"`
}

type SeedUser struct {
	Email            string   `yaml:"email"`
	Password         string   `yaml:"password"`
	Tenant           string   `yaml:"tenant"`
	Roles            []string `yaml:"roles"`
	TwoFactorEnabled bool     `yaml:"twoFactorEnabled"`
}

// SeedResult counts what a seed run created and what already existed.
type SeedResult struct {
	TenantsCreated int
	TenantsSkipped int
	UsersCreated   int
	UsersSkipped   int
}

func LoadSeedFile(path string) (*SeedFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &seed, nil
}

// ApplySeed creates the tenants and users of seed. Tenants matched by name
// and users whose email is taken are left untouched, so a seed file can be
// applied more than once.
func ApplySeed(ctx context.Context, st store.Store, seed *SeedFile) (SeedResult, error) {
	var res SeedResult

	tenants := &service.TenantService{Store: st}
	users := &service.UserService{Store: st}

	existing, err := tenants.List(ctx)
	if err != nil {
		return res, fmt.Errorf("list tenants: %w", err)
	}
	byName := make(map[string]string, len(existing))
	for _, t := range existing {
		byName[t.Name] = t.ID
	}

	for _, t := range seed.Tenants {
		if _, ok := byName[t.Name]; ok {
			res.TenantsSkipped++
			continue
		}
		created, err := tenants.Create(ctx, t.Name, t.TwoFactorRequired)
		if err != nil {
			return res, fmt.Errorf("create tenant %q: %w", t.Name, err)
		}
		byName[created.Name] = created.ID
		res.TenantsCreated++
	}

	for _, u := range seed.Users {
		in := service.RegisterUserInput{
			Email:            u.Email,
			Password:         u.Password,
			Roles:            u.Roles,
			TwoFactorEnabled: u.TwoFactorEnabled,
		}
		if u.Tenant != "" {
			id, ok := byName[u.Tenant]
			if !ok {
				return res, fmt.Errorf("user %q: unknown tenant %q", u.Email, u.Tenant)
			}
			in.TenantID = &id
		} else if !superAdminOnly(u.Roles) {
			return res, fmt.Errorf("user %q: tenant is required unless roles is [SUPER_ADMIN]", u.Email)
		}

		_, err := users.Register(ctx, in)
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			res.UsersSkipped++
		case err != nil:
			return res, fmt.Errorf("register user %q: %w", u.Email, err)
		default:
			res.UsersCreated++
		}
	}

	return res, nil
}

func hashPassword(password string) (string, error) {
	if utf8.RuneCountInString(password) < service.MinPasswordLength {
		return "", service.ErrWeakPassword
	}
	return cryptox.HashPassword(password)
}

func newSeedCmd(cfg *app.Config) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create tenants and users from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := LoadSeedFile(file)
			if err != nil {
				return err
			}
			if err := app.LoadPepper(*cfg); err != nil {
				return fmt.Errorf("load pepper: %w", err)
			}

			db, err := app.OpenStore(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := ApplySeed(cmd.Context(), db, seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(),
				"tenants: %d created, %d existing\nusers: %d created, %d existing\n",
				res.TenantsCreated, res.TenantsSkipped, res.UsersCreated, res.UsersSkipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "Seed file")
	return cmd
}

// superAdminOnly reports whether roles is exactly SUPER_ADMIN, the only
// shape allowed for a user seeded without a tenant.
func superAdminOnly(roles []string) bool {
	return len(roles) == 1 && roles[0] == domain.RoleSuperAdmin
}
