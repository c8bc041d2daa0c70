package dto

type UploadedFileDTO struct {
	FileName    string `json:"file_name"`
	ObjectKey   string `json:"object_key"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// UploadResponseDTO is returned once the material is stored and the
// interview session has started.
type UploadResponseDTO struct {
	SessionID     string             `json:"session_id"`
	Files         []UploadedFileDTO  `json:"files"`
	InterviewPath string             `json:"interview_path"`
	Interview     *InterviewStateDTO `json:"interview,omitempty"`
}
