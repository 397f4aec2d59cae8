package bracket

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	CredentialLength   = 4
	CredentialAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Cost used when fingerprinting credentials. Tests lower it to bcrypt.MinCost.
var fingerprintCost = bcrypt.DefaultCost

// SetFingerprintCost changes the bcrypt cost of credentials created from now
// on. Call it before any team is created, e.g. from TestMain.
func SetFingerprintCost(cost int) {
	fingerprintCost = cost
}

// Team is a registered participant. It carries a short credential that is
// handed out once at registration and is used to authenticate score entry.
type Team struct {
	id   uuid.UUID
	name string

	mu          sync.Mutex
	credential  *string
	fingerprint []byte
}

func NewTeam(name string) (*Team, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: team name cannot be empty", ErrValidation)
	}

	credential, err := generateCredential(CredentialLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate credential: %w", err)
	}

	fingerprint, err := bcrypt.GenerateFromPassword([]byte(credential), fingerprintCost)
	if err != nil {
		return nil, fmt.Errorf("failed to fingerprint credential: %w", err)
	}

	return &Team{
		id:          uuid.New(),
		name:        name,
		credential:  &credential,
		fingerprint: fingerprint,
	}, nil
}

// RestoreTeam rebuilds a team from storage. The credential of a restored team
// has always been handed out already, so only validation is possible.
func RestoreTeam(id uuid.UUID, name string, fingerprint []byte) (*Team, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: team name cannot be empty", ErrValidation)
	}
	if _, err := bcrypt.Cost(fingerprint); err != nil {
		return nil, fmt.Errorf("%w: invalid fingerprint for team %q: %v", ErrValidation, name, err)
	}
	return &Team{id: id, name: name, fingerprint: fingerprint}, nil
}

func generateCredential(length int) (string, error) {
	alphabetSize := big.NewInt(int64(len(CredentialAlphabet)))

	var sb strings.Builder
	sb.Grow(length)
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", err
		}
		sb.WriteByte(CredentialAlphabet[n.Int64()])
	}
	return sb.String(), nil
}

func (t *Team) ID() uuid.UUID {
	return t.id
}

func (t *Team) Name() string {
	return t.name
}

// ReadCredential returns the credential the first time it is called and an
// empty string on every call after that. Callers have to hold on to the value.
func (t *Team) ReadCredential() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.credential == nil {
		return ""
	}
	credential := *t.credential
	t.credential = nil
	return credential
}

// Validate reports whether candidate is the credential this team was created
// with. It keeps working after the credential was read.
func (t *Team) Validate(candidate string) bool {
	return bcrypt.CompareHashAndPassword(t.fingerprint, []byte(candidate)) == nil
}

func (t *Team) Fingerprint() []byte {
	out := make([]byte, len(t.fingerprint))
	copy(out, t.fingerprint)
	return out
}

// AssignCredential always fails, credentials are generated at registration.
func (t *Team) AssignCredential(string) error {
	return fmt.Errorf("%w: credential of team %q cannot be set manually", ErrAccessViolation, t.name)
}

func (t *Team) String() string {
	return fmt.Sprintf("Team(%s, %s)", t.name, t.id)
}
