package sasl

import (
	"fmt"

	"github.com/manifoldco/promptui"
)

// PlainMechanism implements the SASL PLAIN mechanism: a single
// authzid\0authcid\0password response, no further STEP round-trips.
type PlainMechanism struct {
	Authzid string
	Authcid string
	Password string
}

// PromptPlainCredentials interactively asks for a username and masked
// password using promptui, preferring interactive prompts over plaintext
// flags for secrets.
func PromptPlainCredentials(authcid string) (*PlainMechanism, error) {
	if authcid == "" {
		namePrompt := promptui.Prompt{Label: "Username"}
		name, err := namePrompt.Run()
		if err != nil {
			return nil, fmt.Errorf("sasl: read username: %w", err)
		}
		authcid = name
	}

	passPrompt := promptui.Prompt{Label: "Password", Mask: '*'}
	password, err := passPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("sasl: read password: %w", err)
	}

	return &PlainMechanism{Authcid: authcid, Password: password}, nil
}

func (m *PlainMechanism) Name() string { return "PLAIN" }

func (m *PlainMechanism) Start() ([]byte, error) {
	// RFC 4616: [authzid] UTF8NUL authcid UTF8NUL passwd
	return []byte(m.Authzid + "\x00" + m.Authcid + "\x00" + m.Password), nil
}

func (m *PlainMechanism) Step(challenge []byte) ([]byte, bool, error) {
	// PLAIN is a single-message mechanism; any STEP call after Start means
	// the server wants confirmation only.
	return nil, true, nil
}
