package admission

import "hospital-access-backend/internal/model"

// DefaultChecklist returns the fixed pre-admission checklist template.
// The item set is seeded at scheduling time and is not user-editable;
// only the completed flags change afterwards.
func DefaultChecklist() model.Checklist {
	return model.Checklist{
		MedicalTests: []model.ChecklistItem{
			{Name: "Complete Blood Count (CBC)", Instruction: "Fasting not required"},
			{Name: "Blood Sugar Fasting", Instruction: "8-12 hours fasting required"},
			{Name: "ECG", Instruction: "Required for surgery"},
			{Name: "Chest X-Ray", Instruction: "Recent within 1 month"},
			{Name: "COVID-19 RT-PCR", Instruction: "Within 72 hours of admission"},
		},
		Documents: []model.ChecklistItem{
			{Name: "Aadhaar Card", Instruction: "Original + photocopy"},
			{Name: "Insurance Card", Instruction: "Both sides photocopy"},
			{Name: "Previous Medical Records", Instruction: "If any"},
			{Name: "Referral Letter", Instruction: "From referring doctor"},
			{Name: "Passport Size Photos", Instruction: "2 copies"},
		},
		Medications: []model.ChecklistItem{
			{Name: "List current medications", Instruction: "Include dosage and frequency"},
			{Name: "Blood thinners information", Instruction: "If taking any, note last dose"},
			{Name: "Allergy information", Instruction: "List all known allergies"},
		},
		Instructions: []model.ChecklistItem{
			{Name: "Fasting from midnight", Instruction: "Before admission day"},
			{Name: "Arrange companion", Instruction: "For post-procedure care"},
			{Name: "Arrange transportation", Instruction: "For discharge"},
			{Name: "Inform workplace", Instruction: "Plan for recovery leave"},
		},
	}
}
