package session

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	id "regdesk/pkg/domain"
)

// Directory holds the operator accounts, keyed by lowercase username.
type Directory struct {
	byUsername map[string]*Operator
}

type operatorsFile struct {
	Operators []struct {
		ID           string `yaml:"id"`
		Username     string `yaml:"username"`
		DisplayName  string `yaml:"display_name"`
		Role         string `yaml:"role"`
		PasswordHash string `yaml:"password_hash"`
	} `yaml:"operators"`
}

// LoadDirectory reads operators from a YAML file. Password hashes are bcrypt.
func LoadDirectory(path string) (*Directory, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading operators file: %w", err)
	}
	return ParseDirectory(raw)
}

// ParseDirectory parses the YAML operators document.
func ParseDirectory(raw []byte) (*Directory, error) {
	var doc operatorsFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parsing operators file: %w", err)
	}
	dir := &Directory{byUsername: map[string]*Operator{}}
	for i, o := range doc.Operators {
		username := strings.ToLower(strings.TrimSpace(o.Username))
		if username == "" {
			return nil, fmt.Errorf("operator %d: username is required", i)
		}
		if _, err := bcrypt.Cost([]byte(o.PasswordHash)); err != nil {
			return nil, fmt.Errorf("operator %s: password_hash is not a bcrypt hash", username)
		}
		opID := operatorID(username)
		if o.ID != "" {
			parsed, err := id.ParseOperatorID(o.ID)
			if err != nil {
				return nil, fmt.Errorf("operator %s: %w", username, err)
			}
			opID = parsed
		}
		if _, dup := dir.byUsername[username]; dup {
			return nil, fmt.Errorf("operator %s is listed twice", username)
		}
		dir.byUsername[username] = &Operator{
			ID:           opID,
			Username:     username,
			DisplayName:  orDefault(o.DisplayName, username),
			Role:         orDefault(o.Role, "officer"),
			PasswordHash: []byte(o.PasswordHash),
		}
	}
	if len(dir.byUsername) == 0 {
		return nil, fmt.Errorf("operators file lists no operators")
	}
	return dir, nil
}

// DevDirectory returns the built-in development accounts. Never use it in
// production.
func DevDirectory() *Directory {
	dir := &Directory{byUsername: map[string]*Operator{}}
	for _, acct := range []struct{ username, password, name, role string }{
		{"admin", "admin123", "Desk Administrator", "admin"},
		{"officer", "officer123", "Duty Officer", "officer"},
		{"supervisor", "supervisor123", "Shift Supervisor", "supervisor"},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(acct.password), bcrypt.MinCost)
		if err != nil {
			panic(fmt.Sprintf("hashing dev password: %v", err))
		}
		dir.byUsername[acct.username] = &Operator{
			ID:           operatorID(acct.username),
			Username:     acct.username,
			DisplayName:  acct.name,
			Role:         acct.role,
			PasswordHash: hash,
		}
	}
	return dir
}

// Lookup finds an operator by username, case-insensitively.
func (d *Directory) Lookup(username string) (*Operator, bool) {
	o, ok := d.byUsername[strings.ToLower(strings.TrimSpace(username))]
	return o, ok
}

// ByID finds an operator by id.
func (d *Directory) ByID(operatorID id.OperatorID) (*Operator, bool) {
	for _, o := range d.byUsername {
		if o.ID == operatorID {
			return o, true
		}
	}
	return nil, false
}

func (d *Directory) Len() int { return len(d.byUsername) }

// operatorID derives a stable id so tokens survive restarts.
func operatorID(username string) id.OperatorID {
	return id.OperatorID(uuid.NewSHA1(uuid.NameSpaceOID, []byte("regdesk/operator/"+username)))
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return fallback
}
