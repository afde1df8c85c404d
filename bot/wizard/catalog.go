package wizard

import "fmt"

// Stages of the character builder, in fixed order.
const (
	StageIntro   = 0 // Start/Cancel controls, no fields
	StageBasics  = 1 // name, species, appearance
	StageTastes  = 2 // likes, dislikes
	StageCompany = 3 // companions, extra
	StageStory   = 4 // motivations, alignment, backstory
	StageClass   = 5 // class choice buttons
	StageConfirm = 6 // Finish/Cancel controls
)

// stageCount is the number of input-bearing stages shown in progress footers.
const stageCount = 5

// FieldSpec describes a single field a form collects.
type FieldSpec struct {
	// Key is the storage key the submitted value is merged under.
	Key string
	// Label is the display name shown on the form.
	Label string
	// Multiline requests a paragraph-style input instead of a single line.
	Multiline bool
}

// Prompt is the text rendered on the anchor message for a stage.
type Prompt struct {
	Title       string
	Description string
	Footer      string
}

// Catalog is the fixed per-stage definition of fields and prompts. It is
// immutable after construction.
type Catalog struct {
	fields  map[int][]FieldSpec
	prompts map[int]Prompt
}

// NewCatalog returns the builder's stage catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		fields: map[int][]FieldSpec{
			StageBasics: {
				{Key: "name", Label: "Name"},
				{Key: "species", Label: "Species"},
				{Key: "appearance", Label: "Appearance", Multiline: true},
			},
			StageTastes: {
				{Key: "likes", Label: "Likes"},
				{Key: "dislikes", Label: "Dislikes"},
			},
			StageCompany: {
				{Key: "companions", Label: "Companions", Multiline: true},
				{Key: "extra", Label: "Extra", Multiline: true},
			},
			StageStory: {
				{Key: "motivations", Label: "Motivations"},
				{Key: "alignment", Label: "Alignment"},
				{Key: "backstory", Label: "Backstory", Multiline: true},
			},
		},
		prompts: map[int]Prompt{
			StageIntro: {
				Title: "Welcome to character creation!",
				Description: "To build your character press Start when ready, or Cancel at any time to stop. " +
					"Character creation happens in stages, with a short form prompting for your input whenever " +
					"you press Continue. Feel free to go at your own pace.",
			},
			StageBasics: {
				Title:       "First of all, the basics",
				Description: "What's your character's name, species, and appearance?",
				Footer:      footerFor(StageBasics),
			},
			StageTastes: {
				Title: "What does your character have a regard for? Anything they abhor?",
				Description: "Large or small, whether it's a quiet moment with a cup of tea that they like, " +
					"or their archnemesis, which they despise.",
				Footer: footerFor(StageTastes),
			},
			StageCompany: {
				Title:       "Do they wander with others? Any other extra information?",
				Description: "If your character is a loner, feel free to type in 'N/A'.",
				Footer:      footerFor(StageCompany),
			},
			StageStory: {
				Title:       "What drives them? Do they stick with a team? What's their past?",
				Description: "What are their motivations? Do they align themselves to anybody or anything? What's their backstory?",
				Footer:      footerFor(StageStory),
			},
			StageClass: {
				Title: "Lastly, what's their class?",
				Description: "- Martial: they fight with weapons lacking magic\n" +
					"- Caster: they prefer the magical arts\n" +
					"- Half-Caster: they're a mix of both",
				Footer: footerFor(StageClass),
			},
			StageConfirm: {
				Title:       "All set",
				Description: "Press Finish to save your character, or Cancel to discard everything.",
			},
		},
	}
}

func footerFor(stage int) string {
	return fmt.Sprintf("%d/%d", stage, stageCount)
}

// FieldsFor returns the ordered field specs a form collects at the given
// stage. A stage without fields is a contract violation, not user error.
func (c *Catalog) FieldsFor(stage int) ([]FieldSpec, error) {
	specs, ok := c.fields[stage]
	if !ok {
		return nil, contractf("catalog.fields", nil, "no fields defined for stage %d", stage)
	}
	return specs, nil
}

// PromptFor returns the anchor prompt for the given stage.
func (c *Catalog) PromptFor(stage int) (Prompt, error) {
	p, ok := c.prompts[stage]
	if !ok {
		return Prompt{}, contractf("catalog.prompt", nil, "no prompt defined for stage %d", stage)
	}
	return p, nil
}

// FieldStages returns the stages that collect fields, in ascending order.
func (c *Catalog) FieldStages() []int {
	return []int{StageBasics, StageTastes, StageCompany, StageStory}
}

// CollectedKeys returns every storage key the form stages collect, in stage
// order. The class key is added separately by the class-selection buttons.
func (c *Catalog) CollectedKeys() []string {
	var keys []string
	for _, stage := range c.FieldStages() {
		for _, spec := range c.fields[stage] {
			keys = append(keys, spec.Key)
		}
	}
	return keys
}
