package backend

import (
	"context"
	"net/http"
)

// Doctor is a consultant as listed by the backend.
type Doctor struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	Speciality string `json:"speciality"`
	Degree     string `json:"degree"`
	Experience string `json:"experience"`
	About      string `json:"about"`
	Fees       int    `json:"fees"`
	Available  bool   `json:"available"`
}

type doctorListResponse struct {
	Doctors []Doctor `json:"doctors"`
}

// ListDoctors fetches the public doctor directory.
func (c *Client) ListDoctors(ctx context.Context) ([]Doctor, error) {
	var out doctorListResponse
	if err := c.do(ctx, call{op: "doctor_list", method: http.MethodGet, path: "/api/doctor/list"}, &out); err != nil {
		return nil, err
	}
	return out.Doctors, nil
}
