package report

import "strings"

// LocationInput is a submitted location. Accuracy is the GPS accuracy in metres, when known.
type LocationInput struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Name      string   `json:"name"`
	Accuracy  *float64 `json:"accuracy,omitempty"`
}

// CreateReportRequest for POST /reports with a JSON body
type CreateReportRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Location    *LocationInput `json:"location"`
	Images      []string       `json:"images"`
}

// ToInput converts the request into service input
func (r *CreateReportRequest) ToInput() CreateInput {
	in := CreateInput{
		Title:       r.Title,
		Description: r.Description,
		ImageURLs:   r.Images,
	}
	if r.Location != nil {
		in.Location = &Location{
			Latitude:  r.Location.Latitude,
			Longitude: r.Location.Longitude,
			Name:      r.Location.Name,
		}
		in.Accuracy = r.Location.Accuracy
	}
	return in
}

// PhotoFile is an uploaded photo held in memory
type PhotoFile struct {
	Filename string
	Data     []byte
}

// CreateInput is everything needed to file a report
type CreateInput struct {
	Title       string
	Description string
	Location    *Location
	Accuracy    *float64
	ImageURLs   []string
	Photos      []PhotoFile
}

// prepare trims text fields and labels an unnamed location
func (in *CreateInput) prepare() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)

	urls := make([]string, 0, len(in.ImageURLs))
	for _, u := range in.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	in.ImageURLs = urls

	if in.Location != nil {
		loc := *in.Location
		loc.Name = strings.TrimSpace(loc.Name)
		if loc.Name == "" {
			loc.Name = LocationLabel(loc.Latitude, loc.Longitude, in.Accuracy)
		}
		in.Location = &loc
	}
}

// UpdateStatusRequest for PATCH /reports/{id}/status
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,report_status"`
}

// ListQuery holds GET /reports query parameters
type ListQuery struct {
	Status string `form:"status" validate:"status_tab"`
	Search string `form:"q" validate:"max=200"`
}

// LocateRequest for POST /locate
type LocateRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Accuracy  *float64 `json:"accuracy" validate:"omitempty,gte=0"`
}

// LocateResponse is a location ready to attach to a report
type LocateResponse struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name"`
}
