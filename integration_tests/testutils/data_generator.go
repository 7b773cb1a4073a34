package testutils

import (
	"fmt"
	"time"

	roundtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/round"
	sharedtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/shared"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
)

// TestDataGenerator produces realistic launch requests and round fixtures
// for integration tests.
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a generator, seeded for reproducibility when a
// seed is given and from the clock otherwise.
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}

	return &TestDataGenerator{
		faker: gofakeit.New(uint64(s)),
		seed:  s,
	}
}

// GenerateRoster creates a roster of the given size with plausible names,
// handicap indexes, and per-player tee data.
func (g *TestDataGenerator) GenerateRoster(count int) []roundtypes.RosterEntry {
	roster := make([]roundtypes.RosterEntry, count)
	for i := 0; i < count; i++ {
		hcp := g.faker.Float64Range(-2.0, 36.0)
		roster[i] = roundtypes.RosterEntry{
			PlayerID:      sharedtypes.PlayerID(fmt.Sprintf("player-%d-%s", i+1, g.faker.Username())),
			DisplayName:   g.faker.Name(),
			HandicapIndex: &hcp,
			TeeID:         g.faker.RandomString([]string{"white", "yellow", "red", "blue"}),
			Holes:         g.GenerateHoleLayout(18),
		}
	}
	return roster
}

// GenerateHoleLayout builds a full tee card: pars in the usual 3/4/5 spread
// with yardage drawn to match the par.
func (g *TestDataGenerator) GenerateHoleLayout(holeCount int) []roundtypes.HoleDetail {
	holes := make([]roundtypes.HoleDetail, holeCount)
	for i := range holes {
		par := g.faker.RandomInt([]int{3, 4, 4, 4, 5})
		holes[i] = roundtypes.HoleDetail{
			Number:      i + 1,
			Par:         par,
			Yardage:     g.faker.Number(par*80, par*120),
			StrokeIndex: i + 1,
		}
	}
	return holes
}

// GenerateLaunchRequest builds a valid launch request: the roster is split
// into groups of groupSize, the first player of each group is its marker, and
// the organizer is the first roster entry.
func (g *TestDataGenerator) GenerateLaunchRequest(playerCount, groupSize int) roundtypes.LaunchRequest {
	roster := g.GenerateRoster(playerCount)

	var groups []roundtypes.GroupRequest
	for start := 0; start < len(roster); start += groupSize {
		end := start + groupSize
		if end > len(roster) {
			end = len(roster)
		}
		ids := make([]sharedtypes.PlayerID, 0, end-start)
		for _, entry := range roster[start:end] {
			ids = append(ids, entry.PlayerID)
		}
		// Shotgun start: odd-numbered groups go off the first tee, evens
		// off the tenth.
		startingHole := 1
		if len(groups)%2 == 1 {
			startingHole = 10
		}
		groups = append(groups, roundtypes.GroupRequest{
			GroupID:      sharedtypes.GroupID(fmt.Sprintf("g%d", len(groups)+1)),
			GroupName:    fmt.Sprintf("Group %d", len(groups)+1),
			PlayerIDs:    ids,
			MarkerID:     ids[0],
			StartingHole: startingHole,
		})
	}

	return roundtypes.LaunchRequest{
		ParentType:  "society_event",
		ParentID:    uuid.New().String(),
		CourseID:    uuid.New().String(),
		CourseName:  g.faker.City() + " Golf Club",
		HoleCount:   18,
		Format:      "stroke",
		GroupSize:   groupSize,
		Roster:      roster,
		Groups:      groups,
		OrganizerID: roster[0].PlayerID,
	}
}
