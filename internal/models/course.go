package models

// Course is an entry of the course catalogue shown on the home page
type Course struct {
	Name         string `json:"courseName"`
	ThumbnailURL string `json:"thumbnailUrl"`
	Description  string `json:"courseDesc"`
}

// Lesson is a single lesson of a course
type Lesson struct {
	Index         int    `json:"index"`
	Name          string `json:"lessonName"`
	VideoEmbedURL string `json:"videoEmbedUrl"`
	MaterialURL   string `json:"materialUrl"`
}

// CourseDetail is the response of the getCourseData action
type CourseDetail struct {
	Name        string   `json:"courseName"`
	Description string   `json:"courseDesc"`
	Lessons     []Lesson `json:"lessons"`
}

// CourseInput holds the fields of the add/edit course form
type CourseInput struct {
	Name         string   `json:"courseName"`
	Description  string   `json:"courseDesc"`
	ThumbnailURL string   `json:"thumbnailUrl,omitempty"`
	Lessons      []Lesson `json:"lessons,omitempty"`
}
