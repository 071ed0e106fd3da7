package dnd5e

//go:generate mockgen -destination=mock/mock_client.go -package=mockdnd5e . Client

// Client exposes SRD reference names used as prompt inspiration
type Client interface {
	ListRaceNames() ([]string, error)
	ListWeaponNames() ([]string, error)
}
