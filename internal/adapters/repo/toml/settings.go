package toml

import (
	"context"
	"strings"

	"github.com/bnema/feedlink/internal/domain"
	"github.com/bnema/feedlink/internal/ports"
	"github.com/spf13/viper"
)

// SettingsRepository persists the endpoint catalog and the logged-in user.
type SettingsRepository struct {
	file dataFile
}

var _ ports.Settings = (*SettingsRepository)(nil)

func NewSettingsRepository(cfg *viper.Viper) (*SettingsRepository, error) {
	file, err := openDataFile(cfg, SettingsPathKey, "settings")
	if err != nil {
		return nil, err
	}

	return &SettingsRepository{file: file}, nil
}

func (r *SettingsRepository) CandidateAddresses(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.file.mu.RLock()
	defer r.file.mu.RUnlock()

	settings, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(settings.Candidates))
	for _, candidate := range settings.Candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		out = append(out, candidate)
	}

	return out, nil
}

func (r *SettingsRepository) PersistedUserID(ctx context.Context) (domain.UserID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r.file.mu.RLock()
	defer r.file.mu.RUnlock()

	settings, err := r.readSchema()
	if err != nil {
		return "", err
	}

	return domain.UserID(strings.TrimSpace(settings.UserID)), nil
}

// SetPersistedUserID stores id as the logged-in user. An empty or guest id
// logs out.
func (r *SettingsRepository) SetPersistedUserID(ctx context.Context, id domain.UserID) error {
	if id == domain.GuestUserID {
		id = ""
	}

	return r.update(ctx, func(settings *settingsSchema) {
		settings.UserID = strings.TrimSpace(string(id))
	})
}

// SetCandidateAddresses replaces the endpoint catalog, keeping its order.
func (r *SettingsRepository) SetCandidateAddresses(ctx context.Context, addrs []string) error {
	return r.update(ctx, func(settings *settingsSchema) {
		settings.Candidates = append([]string(nil), addrs...)
	})
}

func (r *SettingsRepository) update(ctx context.Context, mutate func(*settingsSchema)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.file.mu.Lock()
	defer r.file.mu.Unlock()

	settings, err := r.readSchema()
	if err != nil {
		return err
	}

	mutate(&settings)

	if err := ctx.Err(); err != nil {
		return err
	}

	applyVersion(&settings.Version)
	return r.file.write(settings)
}

func (r *SettingsRepository) readSchema() (settingsSchema, error) {
	var settings settingsSchema
	if _, err := r.file.read(&settings); err != nil {
		return settingsSchema{}, err
	}
	if err := validateVersion("settings", settings.Version); err != nil {
		return settingsSchema{}, err
	}
	applyVersion(&settings.Version)

	return settings, nil
}
