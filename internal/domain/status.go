package domain

// Stage - состояние конвейера генерации.
type Stage string

const (
	StageIdle                Stage = "IDLE"
	StageAnalyzingDoc        Stage = "ANALYZING_DOC"
	StageGeneratingStructure Stage = "GENERATING_STRUCTURE"
	StageGeneratingImages    Stage = "GENERATING_IMAGES"
	StageComplete            Stage = "COMPLETE"
	StageError               Stage = "ERROR"
)

// CanStart сообщает, можно ли из этого состояния запустить новый цикл.
func (s Stage) CanStart() bool {
	switch s {
	case StageIdle, StageComplete, StageError, "":
		return true
	}
	return false
}

// Busy - цикл генерации в процессе, интерфейс показывает блокирующий индикатор.
func (s Stage) Busy() bool { return !s.CanStart() }

// GenerationStatus - текущее состояние генерации для интерфейса.
// Не входит в Presentation.
type GenerationStatus struct {
	Stage             Stage  `json:"stage"`
	Message           string `json:"message"`
	Progress          int    `json:"progress"`                    // 0–100
	CurrentSlideIndex *int   `json:"currentSlideIndex,omitempty"` // Только на этапе картинок
	TotalSlides       *int   `json:"totalSlides,omitempty"`
}

// IdleStatus - начальное состояние.
func IdleStatus() GenerationStatus {
	return GenerationStatus{Stage: StageIdle}
}

// Clone возвращает копию статуса без общих указателей.
func (s GenerationStatus) Clone() GenerationStatus {
	if s.CurrentSlideIndex != nil {
		v := *s.CurrentSlideIndex
		s.CurrentSlideIndex = &v
	}
	if s.TotalSlides != nil {
		v := *s.TotalSlides
		s.TotalSlides = &v
	}
	return s
}
