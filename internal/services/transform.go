package services

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cehbz/torrentname"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/amaumene/gostremiocatalog/internal/constants"
	"github.com/amaumene/gostremiocatalog/internal/models"
	"github.com/amaumene/gostremiocatalog/internal/upstream"
)

var (
	genreCaser = cases.Title(language.English)

	// fallbacks for titles torrentname cannot read, e.g. "Episode 12" or "Ep. 3"
	episodePattern = regexp.MustCompile(`(?i)\b(?:episode|ep\.?)\s*(\d{1,4})\b`)
	seasonPattern  = regexp.MustCompile(`(?i)\b(?:season|s)\s*(\d{1,2})\b`)
	trailingNumber = regexp.MustCompile(`(\d{1,4})\s*$`)
	whitespace     = regexp.MustCompile(`\s+`)
)

// FormatGenre title-cases an upstream tag ("slice of life" -> "Slice Of Life").
func FormatGenre(genre string) string {
	return genreCaser.String(strings.TrimSpace(genre))
}

// StripHTML returns the text content of an HTML fragment with whitespace
// collapsed, cut to MaxDescriptionLength runes.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return truncate(collapse(fragment), constants.MaxDescriptionLength)
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return truncate(collapse(b.String()), constants.MaxDescriptionLength)
		case html.TextToken:
			b.Write(tokenizer.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			if string(name) == "br" || string(name) == "p" {
				b.WriteByte(' ')
			}
		}
	}
}

// ParseEpisode reads season and episode numbers from a file name or title.
// Season defaults to 1; episode is 0 when nothing could be read.
func ParseEpisode(name string) (season, episode int) {
	if parsed := torrentname.Parse(name); parsed != nil && parsed.Episode > 0 {
		season = parsed.Season
		if season == 0 {
			season = 1
		}
		return season, parsed.Episode
	}

	season = 1
	if m := seasonPattern.FindStringSubmatch(name); m != nil {
		season, _ = strconv.Atoi(m[1])
	}
	if m := episodePattern.FindStringSubmatch(name); m != nil {
		episode, _ = strconv.Atoi(m[1])
		return season, episode
	}
	if m := trailingNumber.FindStringSubmatch(strings.TrimSpace(name)); m != nil {
		episode, _ = strconv.Atoi(m[1])
	}
	return season, episode
}

// streamQuality labels a stream with the resolution found in its label or URL.
func streamQuality(stream upstream.RawStream) string {
	if stream.Quality != "" {
		return stream.Quality
	}
	if parsed := torrentname.Parse(stream.Label); parsed != nil && parsed.Resolution != "" {
		return parsed.Resolution
	}
	return "auto"
}

// MetaID builds the public id of a franchise.
func MetaID(slug string) string {
	return constants.IDPrefix + ":" + slug
}

// VideoID builds the public id of one video of a franchise.
func VideoID(slug, videoID string) string {
	return constants.IDPrefix + ":" + slug + ":" + videoID
}

// ParseID splits a public id into slug and optional video id.
func ParseID(id string) (slug, videoID string, ok bool) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) < 2 || parts[0] != constants.IDPrefix || parts[1] == "" {
		return "", "", false
	}
	if len(parts) == 3 {
		videoID = parts[2]
	}
	return parts[1], videoID, true
}

func itemType(kind string) string {
	if kind == "movie" {
		return "movie"
	}
	return "series"
}

func toPreview(item upstream.Item) models.Meta {
	meta := models.Meta{
		ID:          MetaID(item.Slug),
		Type:        itemType(item.Kind),
		Name:        item.Title,
		Poster:      item.PosterURL,
		Background:  item.BackgroundURL,
		Description: StripHTML(item.Description),
	}
	if item.Year > 0 {
		meta.ReleaseInfo = strconv.Itoa(item.Year)
	}
	for _, genre := range item.Genres {
		meta.Genres = append(meta.Genres, FormatGenre(genre))
	}
	return meta
}

func toMeta(data *upstream.VideoData) models.Meta {
	meta := toPreview(data.Item)
	meta.Runtime = data.Runtime
	meta.Videos = groupEpisodes(data.Slug, data.Videos)
	return meta
}

// groupEpisodes orders a franchise's videos by season then episode. Videos
// whose number cannot be read are appended after the numbered ones.
func groupEpisodes(slug string, videos []upstream.Video) []models.Video {
	out := make([]models.Video, 0, len(videos))
	for i, v := range videos {
		season, episode := v.Season, v.Episode
		if episode == 0 {
			name := v.FileName
			if name == "" {
				name = v.Title
			}
			season, episode = ParseEpisode(name)
		}
		if season == 0 {
			season = 1
		}
		if episode == 0 {
			episode = len(videos) + i + 1
		}

		title := v.Title
		if title == "" {
			title = fmt.Sprintf("Episode %d", episode)
		}

		video := models.Video{
			ID:        VideoID(slug, v.ID),
			Title:     title,
			Season:    season,
			Episode:   episode,
			Thumbnail: v.ThumbnailURL,
		}
		if !v.Released.IsZero() {
			video.Released = v.Released.UTC().Format(time.RFC3339)
		}
		out = append(out, video)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Season != out[j].Season {
			return out[i].Season < out[j].Season
		}
		return out[i].Episode < out[j].Episode
	})
	return out
}

func toStreams(raw []upstream.RawStream, group string) []models.Stream {
	streams := make([]models.Stream, 0, len(raw))
	for _, s := range raw {
		if s.URL == "" {
			continue
		}
		quality := streamQuality(s)
		title := s.Label
		if title == "" {
			title = quality
		}
		streams = append(streams, models.Stream{
			Name:  constants.AddonName + "\n" + quality,
			Title: title,
			URL:   s.URL,
			BehaviorHints: &models.StreamBehaviorHints{
				NotWebReady: strings.Contains(s.URL, ".m3u8"),
				BingeGroup:  group + "-" + quality,
			},
		})
	}
	return streams
}

func collapse(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
