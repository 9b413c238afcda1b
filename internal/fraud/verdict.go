package fraud

type Label int

const (
	LabelNormal Label = 0
	LabelFraud  Label = 1
)

func (l Label) String() string {
	if l == LabelFraud {
		return "fraud"
	}
	return "normal"
}

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Verdict struct {
	Label   Label  `json:"label"`
	Fraud   bool   `json:"fraud"`
	Message string `json:"message"`
	Level   Level  `json:"level"`
}

// Render maps a classifier label to the message shown to the analyst. Any
// label other than 1 is treated as a pass.
func Render(label Label) Verdict {
	if label == LabelFraud {
		return Verdict{Label: label, Fraud: true, Message: "Fraudulent Transaction Detected", Level: LevelError}
	}
	return Verdict{Label: label, Fraud: false, Message: "Normal Transaction", Level: LevelSuccess}
}
