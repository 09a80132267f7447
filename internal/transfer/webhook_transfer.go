package transfer

import (
	"encoding/json"
	"time"
)

// PublishPayload is the JSON body sent to a network's publishing webhook.
type PublishPayload struct {
	PostID          int64     `json:"postId"`
	NetworkName     string    `json:"networkName"`
	TextContent     string    `json:"textContent"`
	MediaFiles      []string  `json:"mediaFiles"`
	Tags            []string  `json:"tags"`
	PublishAt       time.Time `json:"publishAt"`
	ProjectID       int64     `json:"projectId"`
	SocialNetworkID int64     `json:"socialNetworkId"`
}

// GenerationRequest is the JSON body sent to a network's generation webhook.
type GenerationRequest struct {
	Prompt      string `json:"prompt"`
	NetworkName string `json:"network_name"`
	PublishDate string `json:"publish_date"`
	Type        string `json:"type,omitempty"`
	PostID      int64  `json:"post_id,omitempty"`
	ProjectID   int64  `json:"project_id,omitempty"`
}

// ImageURLList accepts the image_url field of a generation response, which
// may be a single string or an array of strings.
type ImageURLList []string

func (l *ImageURLList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single != "" {
			*l = ImageURLList{single}
		}
		return nil
	}

	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// GenerationResult is one element of the array a generation webhook replies
// with. Caption takes precedence over TextContent when both are present.
type GenerationResult struct {
	Caption     string       `json:"caption"`
	TextContent string       `json:"text_content"`
	Tags        []string     `json:"tags"`
	ImageURL    ImageURLList `json:"image_url"`
}
