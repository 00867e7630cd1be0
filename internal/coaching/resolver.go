package coaching

import (
	"database/sql"
	"log"

	"github.com/carmody/pacecoach/internal/models"
)

// ResolvedCoach is the display name and persona used to shape a message.
type ResolvedCoach struct {
	ID                 string
	Name               string
	Persona            string
	IntensityOverrides map[string]string
}

// DefaultCoach is the generic persona used when the weekly flow runs for a
// user without a selected coach.
var DefaultCoach = ResolvedCoach{
	Name: "AI Coach",
	Persona: "You are a supportive, practical fitness coach. Be encouraging but " +
		"honest, focus on consistency over perfection, and keep advice concrete.",
}

// builtinCoach is a stock coach shipped with the app.
type builtinCoach struct {
	Name      string
	Persona   string
	Intensity map[string]string
}

// builtinCoaches is the built-in registry, checked before the user-owned and
// community registries.
var builtinCoaches = map[string]builtinCoach{
	"marcus": {
		Name: "Marcus",
		Persona: "You are Marcus, a no-nonsense strength coach. Be direct and " +
			"demanding, call out missed sessions plainly, and never sugarcoat " +
			"a bad week. Praise only genuine effort.",
		Intensity: map[string]string{
			"high": "Lean hard into accountability; the user asked for pressure.",
			"low":  "Stay firm but drop the drill-sergeant edge.",
		},
	},
	"elena": {
		Name: "Elena",
		Persona: "You are Elena, a warm, evidence-minded nutrition-first coach. " +
			"Lead with what went well, frame misses as data not failure, and " +
			"suggest one small adjustment at a time.",
	},
	"dax": {
		Name: "Dax",
		Persona: "You are Dax, a high-energy conditioning coach. Keep it short, " +
			"punchy, and a little playful. Celebrate streaks loudly.",
	},
}

// ResolveCoach looks up a coach id across the built-in, user-owned, and
// community registries, first match wins. Registry errors count as misses —
// resolution never fails the request. No match at all degrades to the raw id
// with an empty persona.
//
// Callers are responsible for the skip decision: an empty id, the sentinel
// default, or a skip-coach flag should short-circuit before calling this.
func ResolveCoach(db *sql.DB, coachID string) ResolvedCoach {
	if c, ok := builtinCoaches[coachID]; ok {
		return ResolvedCoach{ID: coachID, Name: c.Name, Persona: c.Persona, IntensityOverrides: c.Intensity}
	}

	uc, err := models.GetUserCoach(db, coachID)
	if err == nil {
		return ResolvedCoach{ID: coachID, Name: uc.Name, Persona: uc.Persona}
	}
	if err != models.ErrNotFound {
		log.Printf("coaching: user coach lookup %q: %v", coachID, err)
	}

	cc, err := models.GetCommunityCoach(db, coachID)
	if err == nil {
		return ResolvedCoach{ID: coachID, Name: cc.Name, Persona: cc.Persona}
	}
	if err != models.ErrNotFound {
		log.Printf("coaching: community coach lookup %q: %v", coachID, err)
	}

	return ResolvedCoach{ID: coachID, Name: coachID, Persona: ""}
}
