// backend/internal/application/editor/wizard.go
//
// Responsibility:
// - 4 ステップのウィザード状態（現在位置・完了済みステップ）。
// - 前進はバリデーション必須、後退は常に可、goTo は直前ステップ完了時のみ。
package editor

// StepID names one wizard step.
type StepID string

const (
	StepBasicInfo        StepID = "basic-info"
	StepPricingInventory StepID = "pricing-inventory"
	StepMediaSpecs       StepID = "media-specs"
	StepShippingAndMore  StepID = "shipping-and-more"
)

// Steps is the fixed step order.
var Steps = []StepID{
	StepBasicInfo,
	StepPricingInventory,
	StepMediaSpecs,
	StepShippingAndMore,
}

// StepCheck returns the missing fields of step, empty when the step is valid.
type StepCheck func(step StepID) []string

// Wizard tracks navigation across Steps. Step numbers are 1-based.
type Wizard struct {
	steps     []StepID
	current   int // 0-based
	completed map[StepID]bool
	check     StepCheck
}

// WizardState is a read-only view for callers.
type WizardState struct {
	Steps     []StepID `json:"steps"`
	Current   int      `json:"current"`
	Step      StepID   `json:"step"`
	Completed []StepID `json:"completed"`
	AtLast    bool     `json:"atLast"`
}

func NewWizard(check StepCheck) *Wizard {
	if check == nil {
		check = func(StepID) []string { return nil }
	}
	steps := make([]StepID, len(Steps))
	copy(steps, Steps)
	return &Wizard{
		steps:     steps,
		completed: map[StepID]bool{},
		check:     check,
	}
}

// Next validates the current step. On success the step is marked completed
// and the wizard advances (clamped to the last step). On failure nothing
// changes and the missing fields are returned.
func (w *Wizard) Next() (bool, []string) {
	step := w.steps[w.current]
	if missing := w.check(step); len(missing) > 0 {
		return false, missing
	}
	w.completed[step] = true
	if w.current < len(w.steps)-1 {
		w.current++
	}
	return true, nil
}

// Previous moves back one step, clamped to the first.
func (w *Wizard) Previous() {
	if w.current > 0 {
		w.current--
	}
}

// GoTo jumps to step n when n == 1 or step n-1 is completed.
func (w *Wizard) GoTo(n int) bool {
	if n < 1 || n > len(w.steps) {
		return false
	}
	if n != 1 && !w.completed[w.steps[n-2]] {
		return false
	}
	w.current = n - 1
	return true
}

func (w *Wizard) Current() int { return w.current + 1 }

func (w *Wizard) CurrentStep() StepID { return w.steps[w.current] }

func (w *Wizard) AtLast() bool { return w.current == len(w.steps)-1 }

// IsCompleted reports completion of step n (1-based).
func (w *Wizard) IsCompleted(n int) bool {
	if n < 1 || n > len(w.steps) {
		return false
	}
	return w.completed[w.steps[n-1]]
}

func (w *Wizard) State() WizardState {
	done := make([]StepID, 0, len(w.completed))
	for _, s := range w.steps {
		if w.completed[s] {
			done = append(done, s)
		}
	}
	steps := make([]StepID, len(w.steps))
	copy(steps, w.steps)
	return WizardState{
		Steps:     steps,
		Current:   w.current + 1,
		Step:      w.steps[w.current],
		Completed: done,
		AtLast:    w.AtLast(),
	}
}
