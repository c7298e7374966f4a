package types

type TrainingExerciseInput struct {
	ExerciseName string   `json:"exerciseName"`
	TargetMuscle string   `json:"targetMuscle"`
	Weight       *float64 `json:"weight,omitempty"`
	Sets         *int     `json:"sets,omitempty"`
	Reps         *int     `json:"reps,omitempty"`
	Purpose      string   `json:"purpose,omitempty"`
	Order        *int     `json:"order,omitempty"`
}

type TrainingDayInput struct {
	DayNumber int                     `json:"dayNumber"`
	Name      string                  `json:"name"`
	IsRestDay bool                    `json:"isRestDay"`
	Exercises []TrainingExerciseInput `json:"exercises,omitempty"`
}

type SaveTrainingMenuRequest struct {
	TrainingDays []TrainingDayInput `json:"trainingDays"`
}

type TrainingExerciseView struct {
	ID           string   `json:"id"`
	ExerciseName string   `json:"exerciseName"`
	TargetMuscle string   `json:"targetMuscle"`
	Weight       *float64 `json:"weight,omitempty"`
	Sets         *int     `json:"sets,omitempty"`
	Reps         *int     `json:"reps,omitempty"`
	Purpose      string   `json:"purpose,omitempty"`
	Order        int      `json:"order"`
}

type TrainingDayView struct {
	ID        string                 `json:"id"`
	DayNumber int                    `json:"dayNumber"`
	Name      string                 `json:"name"`
	IsRestDay bool                   `json:"isRestDay"`
	Exercises []TrainingExerciseView `json:"exercises"`
}

type TrainingMenuResponse struct {
	TrainingDays []TrainingDayView `json:"trainingDays"`
}
