package types

type ProfileRequest struct {
	Gender                *string  `json:"gender,omitempty"`
	Occupation            *string  `json:"occupation,omitempty"`
	Age                   *int     `json:"age,omitempty"`
	Height                *int     `json:"height,omitempty"`
	Weight                *float64 `json:"weight,omitempty"`
	FitnessLevel          *string  `json:"fitnessLevel,omitempty"`
	Goals                 []string `json:"goals,omitempty"`
	TrainingFrequency     *int     `json:"trainingFrequency,omitempty"`
	PreferredTrainingTime *string  `json:"preferredTrainingTime,omitempty"`
	DietaryRestrictions   *string  `json:"dietaryRestrictions,omitempty"`
	DailyCalories         *int     `json:"dailyCalories,omitempty"`
	ProteinGoal           *float64 `json:"proteinGoal,omitempty"`
	CurrentHabits         []string `json:"currentHabits,omitempty"`
}
