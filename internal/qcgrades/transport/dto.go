package transport

type Grade struct {
	Code  string `json:"code" validate:"required,max=16,alphanum"`
	Label string `json:"label" validate:"required,max=200"`
}

type ReplaceGradesRequest struct {
	Grades []Grade `json:"grades" validate:"required,min=1,max=50,dive"`
}

type GradeListResponse struct {
	Grades []Grade `json:"grades"`
}
