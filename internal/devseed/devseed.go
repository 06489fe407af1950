// Package devseed generates fake events for development and demos.
package devseed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/stolasapp/gather/internal/sec"
	"github.com/stolasapp/gather/internal/storage"
	"github.com/stolasapp/gather/internal/storage/db"
)

// SeedEnv names the environment variable fixing the generator seed.
const SeedEnv = "GATHER_DEV_SEED"

// Generation constants.
const (
	DefaultCount     = 40
	minParagraphs    = 1
	maxExtraPara     = 3 // 1-3 paragraphs total
	minSentences     = 2
	maxExtraSent     = 4 // 2-5 sentences total
	minWords         = 6
	maxExtraWords    = 10 // 6-15 words total
	listProbability  = 0.3
	maxDaysAhead     = 365
	maxDaysBehind    = 30
	dateLayout       = "2006-01-02"
	bringListMinimum = 2
	bringListExtra   = 3
)

// Seed returns the generator seed from the [SeedEnv] environment variable, or
// a random value if not set.
func Seed() uint64 {
	if env := os.Getenv(SeedEnv); env != "" {
		if seed, err := strconv.ParseUint(env, 10, 64); err == nil {
			return seed
		}
	}
	return rand.Uint64() //nolint:gosec // intentionally weak random for test data
}

// Generator produces deterministic fake events for a seed.
type Generator struct {
	faker *gofakeit.Faker
	now   time.Time
}

// New returns a Generator for seed. Event dates are spread around now.
func New(seed uint64, now time.Time) *Generator {
	return &Generator{
		faker: gofakeit.New(seed),
		now:   now,
	}
}

// Event returns a fake event organized by organizerID. The ID is left unset.
func (g *Generator) Event(organizerID uint64) db.Event {
	date := g.faker.DateRange(
		g.now.AddDate(0, 0, -maxDaysBehind),
		g.now.AddDate(0, 0, maxDaysAhead),
	)
	return db.Event{
		Name:        g.title(),
		Date:        date.Format(dateLayout),
		Location:    fmt.Sprintf("%s, %s", g.faker.Street(), g.faker.City()),
		Description: g.description(),
		OrganizerID: organizerID,
	}
}

func (g *Generator) title() string {
	f := g.faker
	patterns := []func() string{
		func() string { return fmt.Sprintf("The %s %s Meetup", capitalize(f.Adjective()), capitalize(f.Noun())) },
		func() string { return fmt.Sprintf("%s Night", capitalize(f.Hobby())) },
		func() string { return fmt.Sprintf("%s %s Workshop", capitalize(f.Adjective()), capitalize(f.Hobby())) },
		func() string { return fmt.Sprintf("%s in the %s", capitalize(f.Noun()), capitalize(f.Noun())) },
	}
	return patterns[f.IntN(len(patterns))]()
}

// description returns Markdown text, sometimes with a list of things to bring.
func (g *Generator) description() string {
	f := g.faker
	numParagraphs := minParagraphs + f.IntN(maxExtraPara)
	paragraphs := make([]string, 0, numParagraphs+1)
	for range numParagraphs {
		numSentences := minSentences + f.IntN(maxExtraSent)
		sentences := make([]string, numSentences)
		for i := range numSentences {
			sentences[i] = f.Sentence(minWords + f.IntN(maxExtraWords))
		}
		paragraphs = append(paragraphs, strings.Join(sentences, " "))
	}

	if f.Float64() < listProbability {
		var list strings.Builder
		list.WriteString("**Bring:**\n")
		for range bringListMinimum + f.IntN(bringListExtra) {
			list.WriteString("\n- ")
			list.WriteString(f.Noun())
		}
		paragraphs = append(paragraphs, list.String())
	}
	return strings.Join(paragraphs, "\n\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Populate stores count generated events organized by organizerID.
func Populate(
	ctx context.Context,
	events storage.Events,
	gen *Generator,
	organizerID uint64,
	count int,
) ([]db.Event, error) {
	created := make([]db.Event, 0, count)
	for range count {
		event, err := events.CreateEvent(ctx, gen.Event(organizerID))
		if err != nil {
			return created, fmt.Errorf("failed to create event: %w", err)
		}
		created = append(created, event)
	}
	return created, nil
}

// EnsureUser returns the user named loginName, creating it with password if it
// does not exist.
func EnsureUser(ctx context.Context, users storage.Users, loginName, password string) (db.User, error) {
	user, err := users.GetUserByName(ctx, loginName)
	if err == nil {
		return user, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return db.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	hash, err := sec.HashPassword(password)
	if err != nil {
		return db.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	return users.CreateUser(ctx, db.User{
		LoginName:    loginName,
		PasswordHash: hash,
	})
}
