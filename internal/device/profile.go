package device

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cosem-conformance/conformance-go/pkg/cosem"
)

// InterfaceType is the framing used to reach the meter.
type InterfaceType uint8

const (
	InterfaceHDLC InterfaceType = iota
	InterfaceWrapper
	InterfaceHDLCModeE
)

// String returns the interface name.
func (i InterfaceType) String() string {
	switch i {
	case InterfaceHDLC:
		return "HDLC"
	case InterfaceWrapper:
		return "WRAPPER"
	case InterfaceHDLCModeE:
		return "HDLC-MODE-E"
	default:
		return "UNKNOWN"
	}
}

// HasConnectHandshake reports whether the framing uses SNRM/UA and
// disconnect frames.
func (i InterfaceType) HasConnectHandshake() bool {
	return i != InterfaceWrapper
}

// UnmarshalYAML parses "hdlc", "wrapper" or "hdlc-mode-e".
func (i *InterfaceType) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "HDLC":
		*i = InterfaceHDLC
	case "WRAPPER":
		*i = InterfaceWrapper
	case "HDLC-MODE-E", "HDLCWITHMODEE":
		*i = InterfaceHDLCModeE
	default:
		return fmt.Errorf("invalid interface %q", s)
	}
	return nil
}

// Referencing is the object addressing mode.
type Referencing string

const (
	ReferencingLN Referencing = "ln"
	ReferencingSN Referencing = "sn"
)

// DefaultMaxInfo is the HDLC information field length clients ask for
// unless the profile says otherwise.
const DefaultMaxInfo = 128

// DefaultPduSize is the PDU size clients ask for unless the profile says
// otherwise.
const DefaultPduSize = 0xFFFF

// Profile describes one meter under test: how to reach it, how to
// associate and the association view captured when it was added.
type Profile struct {
	Name    string `yaml:"name"`
	Driver  string `yaml:"driver"`
	Address string `yaml:"address,omitempty"`

	Interface   InterfaceType `yaml:"interface"`
	Referencing Referencing   `yaml:"referencing,omitempty"`

	ClientAddress int `yaml:"client_address,omitempty"`
	ServerAddress int `yaml:"server_address,omitempty"`

	Authentication cosem.Authentication `yaml:"authentication"`
	Password       string               `yaml:"password,omitempty"`

	MaxInfoRX int `yaml:"max_info_rx,omitempty"`
	MaxInfoTX int `yaml:"max_info_tx,omitempty"`
	PduSize   int `yaml:"pdu_size,omitempty"`

	// Options are driver specific settings.
	Options map[string]string `yaml:"options,omitempty"`

	Objects []*cosem.Object `yaml:"objects"`
}

// LogicalNameReferencing reports whether objects are addressed by
// logical name.
func (p *Profile) LogicalNameReferencing() bool {
	return p.Referencing != ReferencingSN
}

// Credential returns the credential configured for the meter.
func (p *Profile) Credential() Credential {
	return Credential{Authentication: p.Authentication, Password: p.Password}
}

// FindObject returns the object with the given class and logical name.
func (p *Profile) FindObject(ot cosem.ObjectType, ln string) *cosem.Object {
	for _, o := range p.Objects {
		if o.ClassID == ot && o.LogicalName == ln {
			return o
		}
	}
	return nil
}

// Clone returns a deep copy so jobs never share mutable device state.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	if p.Options != nil {
		c.Options = make(map[string]string, len(p.Options))
		for k, v := range p.Options {
			c.Options[k] = v
		}
	}
	if p.Objects != nil {
		c.Objects = make([]*cosem.Object, len(p.Objects))
		for i, o := range p.Objects {
			c.Objects[i] = o.Clone()
		}
	}
	return &c
}

// applyDefaults fills unset limits.
func (p *Profile) applyDefaults() {
	if p.MaxInfoRX == 0 {
		p.MaxInfoRX = DefaultMaxInfo
	}
	if p.MaxInfoTX == 0 {
		p.MaxInfoTX = DefaultMaxInfo
	}
	if p.PduSize == 0 {
		p.PduSize = DefaultPduSize
	}
	if p.Referencing == "" {
		p.Referencing = ReferencingLN
	}
}

// Validate checks the profile for values no driver can work with.
func (p *Profile) Validate() error {
	var errs []error
	if p.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if p.Driver == "" {
		errs = append(errs, errors.New("driver is required"))
	}
	if p.Referencing != ReferencingLN && p.Referencing != ReferencingSN {
		errs = append(errs, fmt.Errorf("invalid referencing %q", p.Referencing))
	}
	if p.MaxInfoRX < 32 || p.MaxInfoRX > 2030 {
		errs = append(errs, fmt.Errorf("max_info_rx %d out of range 32..2030", p.MaxInfoRX))
	}
	if p.MaxInfoTX < 32 || p.MaxInfoTX > 2030 {
		errs = append(errs, fmt.Errorf("max_info_tx %d out of range 32..2030", p.MaxInfoTX))
	}
	if p.Authentication != cosem.AuthenticationNone && p.Password == "" {
		errs = append(errs, fmt.Errorf("authentication %s requires a password", p.Authentication))
	}
	for i, o := range p.Objects {
		if _, err := cosem.ParseLogicalName(o.LogicalName); err != nil {
			errs = append(errs, fmt.Errorf("object %d: %w", i+1, err))
		}
	}
	return errors.Join(errs...)
}

// ParseProfile decodes a YAML profile, applies defaults and validates it.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid profile %q: %w", p.Name, err)
	}
	return &p, nil
}

// LoadProfile reads a YAML profile from disk.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
