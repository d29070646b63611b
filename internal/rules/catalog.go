// Package rules turns a situation, approach, temperament and context into guidance.
package rules

import (
	"fmt"

	"github.com/verte-zerg/steady/internal/model"
)

// Guidance is the fixed base advice for one approach and situation.
type Guidance struct {
	DoThisNow    []string
	AvoidThis    []string
	WhyThisWorks string
}

var catalog = map[model.Approach]map[model.Situation]Guidance{
	model.ApproachConnectRedirect: {
		model.SituationTantrum: {
			DoThisNow: []string{
				"Get down to their level, stay calm and quiet.",
				"Offer gentle physical presence—open arms, soft voice: \"I'm here with you.\"",
				"Wait for the wave to pass, then name what you saw: \"That was really big.\"",
			},
			AvoidThis: []string{
				"Don't try to reason or explain right now.",
				"Avoid saying \"calm down\" or \"stop crying.\"",
			},
			WhyThisWorks: "Connection activates the calming system before the thinking brain can engage.",
		},
		model.SituationRefusing: {
			DoThisNow: []string{
				"Acknowledge what they want: \"You really want to keep playing.\"",
				"Connect briefly—a touch, eye contact, understanding nod.",
				"Then redirect with limited choices: \"Shoes first, then one more minute outside.\"",
			},
			AvoidThis: []string{
				"Don't repeat the instruction louder.",
				"Avoid power struggles—this isn't about winning.",
			},
			WhyThisWorks: "Feeling understood makes cooperation easier than resistance.",
		},
		model.SituationBedtime: {
			DoThisNow: []string{
				"Slow everything down—your voice, your movements.",
				"Connect through the routine: \"Let's do this together.\"",
				"Offer one small choice: \"This book or that one?\"",
			},
			AvoidThis: []string{
				"Don't rush or show frustration.",
				"Avoid screens or stimulating activities.",
			},
			WhyThisWorks: "A calm, connected transition tells their nervous system it's safe to rest.",
		},
		model.SituationSibling: {
			DoThisNow: []string{
				"Separate briefly if needed, without blame: \"Let's take a pause.\"",
				"Connect with each child: \"Tell me what happened for you.\"",
				"Help them solve it together once both feel heard.",
			},
			AvoidThis: []string{
				"Don't ask \"who started it.\"",
				"Avoid taking sides or assigning blame.",
			},
			WhyThisWorks: "Both children need to feel heard before they can hear each other.",
		},
		model.SituationTransition: {
			DoThisNow: []string{
				"Give a warm warning: \"In two minutes we'll start getting ready.\"",
				"Connect to their current activity: \"You're really enjoying that.\"",
				"Then transition together: \"Let's go—you can tell me about it on the way.\"",
			},
			AvoidThis: []string{
				"Don't spring it on them suddenly.",
				"Avoid making it feel like punishment.",
			},
			WhyThisWorks: "Transitions are easier when they don't feel like losses.",
		},
	},
	model.ApproachEmotionCoaching: {
		model.SituationTantrum: {
			DoThisNow: []string{
				"Stay nearby and calm—your calm is contagious.",
				"Name the emotion: \"You're really frustrated right now.\"",
				"Set the boundary gently: \"It's okay to feel angry. It's not okay to hit.\"",
			},
			AvoidThis: []string{
				"Don't dismiss the feeling (\"It's not a big deal\").",
				"Avoid giving in to stop the tantrum.",
			},
			WhyThisWorks: "Naming emotions helps children understand and eventually regulate them.",
		},
		model.SituationRefusing: {
			DoThisNow: []string{
				"Acknowledge the feeling: \"You don't want to do this right now.\"",
				"State the boundary clearly: \"And it's time to [task].\"",
				"Offer support: \"I'll help you get started.\"",
			},
			AvoidThis: []string{
				"Don't negotiate the non-negotiable.",
				"Avoid lecturing or explaining too much.",
			},
			WhyThisWorks: "Clear boundaries with emotional support teach self-regulation.",
		},
		model.SituationBedtime: {
			DoThisNow: []string{
				"Validate the feeling: \"It's hard to stop playing, isn't it?\"",
				"Keep the boundary: \"And it's bedtime now.\"",
				"Stay warm but firm through the routine.",
			},
			AvoidThis: []string{
				"Don't add extra steps to delay.",
				"Avoid engaging in negotiations.",
			},
			WhyThisWorks: "Consistent boundaries create security, even when met with protest.",
		},
		model.SituationSibling: {
			DoThisNow: []string{
				"Coach each child: \"How do you think your brother felt when that happened?\"",
				"Help them name their own feelings.",
				"Guide them toward a solution: \"What could we do differently?\"",
			},
			AvoidThis: []string{
				"Don't solve it for them.",
				"Avoid punishing without teaching.",
			},
			WhyThisWorks: "Conflict is a chance to practice emotional intelligence.",
		},
		model.SituationTransition: {
			DoThisNow: []string{
				"Acknowledge the hard part: \"Leaving is hard when you're having fun.\"",
				"State what's happening: \"It's time to go now.\"",
				"Stay patient and present while they adjust.",
			},
			AvoidThis: []string{
				"Don't bribe or make promises.",
				"Avoid letting frustration show.",
			},
			WhyThisWorks: "Learning to handle transitions builds emotional resilience.",
		},
	},
}

func init() {
	if err := checkCatalog(catalog); err != nil {
		panic(err)
	}
}

// checkCatalog verifies every approach and situation pair resolves to usable guidance.
func checkCatalog(c map[model.Approach]map[model.Situation]Guidance) error {
	for _, a := range model.Approaches {
		bySituation, ok := c[a]
		if !ok {
			return fmt.Errorf("guidance catalog missing approach %q", a)
		}
		for _, s := range model.Situations {
			g, ok := bySituation[s]
			if !ok {
				return fmt.Errorf("guidance catalog missing %q/%q", a, s)
			}
			if len(g.DoThisNow) < 2 || len(g.AvoidThis) < 2 || g.WhyThisWorks == "" {
				return fmt.Errorf("guidance catalog entry %q/%q is incomplete", a, s)
			}
		}
	}
	return nil
}

// BaseGuidance returns a copy of the base guidance for a situation and approach.
// Values outside the vocabulary deliberately fall back to the default approach
// and the tantrum entry, so Decide always returns guidance.
func BaseGuidance(situation model.Situation, approach model.Approach) Guidance {
	bySituation, ok := catalog[approach]
	if !ok {
		bySituation = catalog[model.DefaultApproach]
	}
	g, ok := bySituation[situation]
	if !ok {
		g = bySituation[model.SituationTantrum]
	}
	return Guidance{
		DoThisNow:    append([]string(nil), g.DoThisNow...),
		AvoidThis:    append([]string(nil), g.AvoidThis...),
		WhyThisWorks: g.WhyThisWorks,
	}
}
