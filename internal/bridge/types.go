package bridge

import "time"

// ProviderHue is the provider name of Philips Hue bridges.
const ProviderHue = "hue"

// Bridge is one registered bridge. Username is empty until paired.
type Bridge struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Provider  string    `json:"provider"`
	Address   string    `json:"ip"`
	Username  string    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Paired reports whether the bridge has issued credentials.
func (b Bridge) Paired() bool {
	return b.Username != ""
}
