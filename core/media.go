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


package core

import (
	"fmt"
	"path"
	"strings"
)

// MediaKind distinguishes the two supported classes of media input.
// The kind selects the prompt template used when describing the media.
type MediaKind int

const (
	MediaKindImage MediaKind = iota + 1
	MediaKindVideo
)

// SupportedImageTypes lists the image file extensions accepted for
// classification, without the leading dot.
var SupportedImageTypes = map[string]bool{
	"jpeg": true,
	"jpg":  true,
	"png":  true,
}

// SupportedVideoTypes lists the video file extensions accepted for
// classification, without the leading dot.
var SupportedVideoTypes = map[string]bool{
	"x-flv":  true,
	"mov":    true,
	"mpeg":   true,
	"mpegps": true,
	"mpg":    true,
	"mp4":    true,
	"webm":   true,
	"wmv":    true,
	"3gpp":   true,
}

// MediaExtension returns the lowercased file extension of a URI without
// the leading dot.
func MediaExtension(uri string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(uri), "."))
}

// MediaKindOf resolves the media kind for a URI from its file extension.
// Returns ErrUnsupportedMediaType for extensions outside the allow-lists.
func MediaKindOf(uri string) (MediaKind, error) {
	extension := MediaExtension(uri)
	switch {
	case SupportedImageTypes[extension]:
		return MediaKindImage, nil
	case SupportedVideoTypes[extension]:
		return MediaKindVideo, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, extension)
}

// HasValidMediaExtension reports whether a URI carries one of the
// supported image or video extensions.
func HasValidMediaExtension(uri string) bool {
	_, err := MediaKindOf(uri)
	return err == nil
}
