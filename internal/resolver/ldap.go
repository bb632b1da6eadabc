package resolver

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-ldap/ldap/v3"

	"github.com/groupdir-io/groupdir/internal/models"
)

// LDAPConfig holds the directory connection and search settings for the
// LDAP-backed account resolver.
type LDAPConfig struct {
	Host    string `json:"host" mapstructure:"host"`
	Port    int    `json:"port" mapstructure:"port"`
	Timeout int    `json:"timeout_seconds" mapstructure:"timeout_seconds"`

	BindDN       string `json:"bind_dn" mapstructure:"bind_dn"`
	BindPassword string `json:"bind_password" mapstructure:"bind_password"`

	BaseDN string `json:"base_dn" mapstructure:"base_dn"`
	// IDAttribute is the entry attribute carrying the numeric directory
	// account id, e.g. "uidNumber".
	IDAttribute string `json:"id_attribute" mapstructure:"id_attribute"`
}

// LDAPResolver resolves accounts by searching an LDAP directory on mail,
// uid and cn. Connections are short-lived, one per lookup.
type LDAPResolver struct {
	config LDAPConfig
}

// NewLDAPResolver creates an LDAP-backed account resolver.
func NewLDAPResolver(config LDAPConfig) *LDAPResolver {
	if config.Port == 0 {
		config.Port = 389
	}
	if config.Timeout == 0 {
		config.Timeout = 30
	}
	if config.IDAttribute == "" {
		config.IDAttribute = "uidNumber"
	}
	return &LDAPResolver{config: config}
}

// FindAll searches the directory for entries whose mail, uid or cn equals
// the input and returns their numeric account ids. Entries without a
// parseable id attribute are skipped.
// The context is accepted for interface symmetry; go-ldap searches carry
// their own time limit.
func (r *LDAPResolver) FindAll(_ context.Context, nameOrEmail string) ([]models.AccountID, error) {
	conn, err := r.dial()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	escaped := ldap.EscapeFilter(nameOrEmail)
	filter := fmt.Sprintf("(|(mail=%s)(uid=%s)(cn=%s))", escaped, escaped, escaped)

	req := ldap.NewSearchRequest(
		r.config.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0, r.config.Timeout, false,
		filter,
		[]string{r.config.IDAttribute},
		nil,
	)

	result, err := conn.SearchWithPaging(req, 100)
	if err != nil {
		return nil, fmt.Errorf("ldap search for %q: %w", nameOrEmail, err)
	}

	ids := make([]models.AccountID, 0, len(result.Entries))
	for _, entry := range result.Entries {
		raw := entry.GetAttributeValue(r.config.IDAttribute)
		id, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		ids = append(ids, models.AccountID(id))
	}
	return ids, nil
}

func (r *LDAPResolver) dial() (*ldap.Conn, error) {
	address := fmt.Sprintf("ldap://%s:%d", r.config.Host, r.config.Port)
	dialer := &net.Dialer{Timeout: time.Duration(r.config.Timeout) * time.Second}

	conn, err := ldap.DialURL(address, ldap.DialWithDialer(dialer))
	if err != nil {
		return nil, fmt.Errorf("connect to ldap server: %w", err)
	}

	if r.config.BindDN != "" {
		if err := conn.Bind(r.config.BindDN, r.config.BindPassword); err != nil {
			conn.Close()
			return nil, fmt.Errorf("ldap bind as %s: %w", r.config.BindDN, err)
		}
	}
	return conn, nil
}
