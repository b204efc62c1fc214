// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package vertex

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/taxonify/core"
	"google.golang.org/genai"
)

// Prompt templates selected by media kind.
const (
	imagePrompt = "This image shows:"
	videoPrompt = "This video shows:"
)

// mimeTypes maps supported media extensions to MIME types for the
// generative model's file parts.
var mimeTypes = map[string]string{
	"jpeg":   "image/jpeg",
	"jpg":    "image/jpeg",
	"png":    "image/png",
	"x-flv":  "video/x-flv",
	"mov":    "video/quicktime",
	"mpeg":   "video/mpeg",
	"mpegps": "video/mpegps",
	"mpg":    "video/mpeg",
	"mp4":    "video/mp4",
	"webm":   "video/webm",
	"wmv":    "video/x-ms-wmv",
	"3gpp":   "video/3gpp",
}

// MediaModel implements ai.MediaModel using a Gemini generative model.
type MediaModel struct {
	client *genai.Client
	model  string
	logger *slog.Logger
}

// generationConfig mirrors the fixed generation settings used for media
// description.
func generationConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature:    genai.Ptr[float32](0.8),
		TopP:           genai.Ptr[float32](0.95),
		TopK:           genai.Ptr[float32](20),
		CandidateCount: 1,
		StopSequences:  []string{"STOP!"},
	}
}

// DescribeMedia generates a description for one media file. The prompt is
// selected by the media kind. Rate-limit responses surface as
// core.ErrResourceExhausted.
func (m *MediaModel) DescribeMedia(ctx context.Context, uri string, kind core.MediaKind) (string, error) {
	prompt := imagePrompt
	if kind == core.MediaKindVideo {
		prompt = videoPrompt
	}

	parts := []*genai.Part{
		genai.NewPartFromURI(uri, mimeTypes[core.MediaExtension(uri)]),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	response, err := m.client.Models.GenerateContent(ctx, m.model, contents, generationConfig())
	if err != nil {
		m.logger.Error("failed to describe media", "uri", uri, "err", err)
		return "", translateError(err)
	}

	return strings.TrimSpace(response.Text()), nil
}
