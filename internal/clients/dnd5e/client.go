package dnd5e

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fadedpez/dnd5e-api/clients/dnd5e"

	apperr "github.com/KirkDiggler/narrative-service/internal/errors"
)

const weaponCategory = "weapon"

// TODO: add context to functions once the upstream client accepts one
type client struct {
	source referenceSource

	mu      sync.Mutex
	races   []string
	weapons []string
}

type Config struct {
	HttpClient *http.Client
}

// referenceSource narrows the upstream API to the lookups we cache
type referenceSource interface {
	raceNames() ([]string, error)
	weaponNames() ([]string, error)
}

type apiSource struct {
	api dnd5e.Interface
}

func (s apiSource) raceNames() ([]string, error) {
	items, err := s.api.ListRaces()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		if item != nil && strings.TrimSpace(item.Name) != "" {
			names = append(names, item.Name)
		}
	}
	return names, nil
}

func (s apiSource) weaponNames() ([]string, error) {
	category, err := s.api.GetEquipmentCategory(weaponCategory)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, nil
	}

	names := make([]string, 0, len(category.Equipment))
	for _, ref := range category.Equipment {
		if ref != nil && strings.TrimSpace(ref.Name) != "" {
			names = append(names, ref.Name)
		}
	}
	return names, nil
}

func New(cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, apperr.InvalidArgument("config cannot be nil")
	}

	httpClient := cfg.HttpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}

	dndClient, err := dnd5e.NewDND5eAPI(&dnd5e.DND5eAPIConfig{
		Client: httpClient,
	})
	if err != nil {
		return nil, apperr.Wrap(err, "failed to create dnd5e API client")
	}

	return newWithSource(apiSource{api: dndClient}), nil
}

func newWithSource(source referenceSource) *client {
	return &client{source: source}
}

// ListRaceNames returns the SRD race names, fetched once per process
func (c *client) ListRaceNames() ([]string, error) {
	return c.cached(&c.races, c.source.raceNames, "races")
}

// ListWeaponNames returns the SRD weapon names, fetched once per process
func (c *client) ListWeaponNames() ([]string, error) {
	return c.cached(&c.weapons, c.source.weaponNames, "weapons")
}

func (c *client) cached(slot *[]string, fetch func() ([]string, error), what string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if *slot != nil {
		return append([]string(nil), *slot...), nil
	}

	names, err := fetch()
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeUnavailable, "failed to list "+what).
			WithMeta("source", "dnd5e")
	}

	sort.Strings(names)
	if names == nil {
		names = []string{}
	}
	*slot = names

	return append([]string(nil), names...), nil
}
