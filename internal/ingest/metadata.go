package ingest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"geoevents.io/geoevents/internal/domain"
	"geoevents.io/geoevents/internal/metrics"
	"geoevents.io/geoevents/internal/pkg/logger"
)

// MetadataFetcher looks up what a platform knows about a post.
type MetadataFetcher interface {
	Fetch(ctx context.Context, url string) (*domain.VideoMetadata, error)
}

var errNoPostFound = errors.New("post not found")

// StubMetadata is the placeholder used when a platform lookup fails.
func StubMetadata(p domain.Platform, url string) *domain.VideoMetadata {
	m := &domain.VideoMetadata{VideoURL: url, Stub: true, Hashtags: []string{}}
	switch p {
	case domain.PlatformTikTok:
		m.Title, m.Description = "TikTok Video", "Video from TikTok"
	case domain.PlatformTwitter:
		m.Title, m.Description = "Twitter/X Post", "Post from Twitter/X"
	case domain.PlatformInstagram:
		m.Title, m.Description = "Instagram Post", "Post from Instagram"
	default:
		m.Title, m.Description = "Video", "Video from "+url
	}
	return m
}

// MetadataSource dispatches to per-platform fetchers and never fails: any
// lookup error degrades to StubMetadata.
type MetadataSource struct {
	fetchers map[domain.Platform]MetadataFetcher
	now      func() time.Time
}

// NewMetadataSource wires the TikTok and Twitter fetchers to api. A nil api
// leaves only stub metadata. Instagram has no lookup and always uses the stub.
func NewMetadataSource(api DataAPI) *MetadataSource {
	s := &MetadataSource{fetchers: make(map[domain.Platform]MetadataFetcher), now: time.Now}
	if api != nil {
		s.fetchers[domain.PlatformTikTok] = &TikTokFetcher{api: api}
		s.fetchers[domain.PlatformTwitter] = &TwitterFetcher{api: api}
	}
	return s
}

// Fetch returns metadata for url on platform p.
func (s *MetadataSource) Fetch(ctx context.Context, p domain.Platform, url string) *domain.VideoMetadata {
	f, ok := s.fetchers[p]
	if !ok {
		return s.stub(p, url)
	}

	m, err := f.Fetch(ctx, url)
	if err != nil {
		logger.Ctx(ctx).Warn("Metadata lookup failed, using placeholder",
			zap.String("platform", string(p)),
			zap.Error(err),
		)
		metrics.RecordMetadataFallback(string(p))
		return s.stub(p, url)
	}
	if m.VideoURL == "" {
		m.VideoURL = url
	}
	if m.PostedAt == 0 {
		m.PostedAt = s.now().Unix()
	}
	return m
}

func (s *MetadataSource) stub(p domain.Platform, url string) *domain.VideoMetadata {
	m := StubMetadata(p, url)
	m.PostedAt = s.now().Unix()
	return m
}

var tiktokVideoID = regexp.MustCompile(`/video/(\d+)`)

// TikTokFetcher searches the TikTok data API.
type TikTokFetcher struct {
	api DataAPI
}

type tiktokSearchResponse struct {
	Data []struct {
		Desc       string `json:"desc"`
		CreateTime int64  `json:"create_time"`
		Author     struct {
			UniqueID string `json:"unique_id"`
		} `json:"author"`
		Video struct {
			Cover string `json:"cover"`
		} `json:"video"`
		TextExtra []struct {
			HashtagName string `json:"hashtag_name"`
		} `json:"text_extra"`
	} `json:"data"`
}

// Fetch requires a /video/<id> URL.
func (f *TikTokFetcher) Fetch(ctx context.Context, url string) (*domain.VideoMetadata, error) {
	match := tiktokVideoID.FindStringSubmatch(url)
	if match == nil {
		return nil, fmt.Errorf("invalid TikTok URL %q", url)
	}

	var resp tiktokSearchResponse
	err := f.api.Call(ctx, "Tiktok/search_tiktok_video_general", map[string]string{
		"keyword": match[1],
		"count":   "1",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errNoPostFound
	}

	v := resp.Data[0]
	m := &domain.VideoMetadata{
		Title:        firstNonEmpty(v.Desc, "TikTok Video"),
		Description:  firstNonEmpty(v.Desc, "Video from TikTok"),
		Author:       v.Author.UniqueID,
		ThumbnailURL: v.Video.Cover,
		VideoURL:     url,
		PostedAt:     v.CreateTime,
		Hashtags:     []string{},
	}
	for _, t := range v.TextExtra {
		if t.HashtagName != "" {
			m.Hashtags = append(m.Hashtags, t.HashtagName)
		}
	}
	return m, nil
}

var tweetPath = regexp.MustCompile(`/([^/]+)/status/(\d+)`)

// TwitterFetcher resolves the author and scans their recent tweets.
type TwitterFetcher struct {
	api DataAPI
}

type twitterProfileResponse struct {
	Result struct {
		Data struct {
			User struct {
				Result struct {
					RestID string `json:"rest_id"`
				} `json:"result"`
			} `json:"user"`
		} `json:"data"`
	} `json:"result"`
}

type tweetLegacy struct {
	FullText  string `json:"full_text"`
	CreatedAt string `json:"created_at"`
	IDStr     string `json:"id_str"`
	Entities  struct {
		Hashtags []struct {
			Text string `json:"text"`
		} `json:"hashtags"`
		Media []struct {
			MediaURLHTTPS string `json:"media_url_https"`
		} `json:"media"`
	} `json:"entities"`
}

type twitterTimelineResponse struct {
	Result struct {
		Timeline struct {
			Instructions []struct {
				Type    string `json:"type"`
				Entries []struct {
					EntryID string `json:"entryId"`
					Content struct {
						ItemContent struct {
							TweetResults struct {
								Result *struct {
									RestID string      `json:"rest_id"`
									Legacy tweetLegacy `json:"legacy"`
								} `json:"result"`
							} `json:"tweet_results"`
						} `json:"itemContent"`
					} `json:"content"`
				} `json:"entries"`
			} `json:"instructions"`
		} `json:"timeline"`
	} `json:"result"`
}

// twitterTimeLayout is the created_at format of the v1.1 legacy payload.
const twitterTimeLayout = "Mon Jan 02 15:04:05 -0700 2006"

// Fetch requires a /<user>/status/<id> URL. The status id selects the
// matching tweet when present in the timeline, otherwise the first tweet.
func (f *TwitterFetcher) Fetch(ctx context.Context, url string) (*domain.VideoMetadata, error) {
	match := tweetPath.FindStringSubmatch(url)
	if match == nil {
		return nil, fmt.Errorf("invalid Twitter URL %q", url)
	}
	username, statusID := match[1], match[2]

	var profile twitterProfileResponse
	if err := f.api.Call(ctx, "Twitter/get_user_profile_by_username",
		map[string]string{"username": username}, &profile); err != nil {
		return nil, err
	}
	userID := profile.Result.Data.User.Result.RestID
	if userID == "" {
		return nil, fmt.Errorf("twitter user %q not found", username)
	}

	var timeline twitterTimelineResponse
	if err := f.api.Call(ctx, "Twitter/get_user_tweets",
		map[string]string{"user": userID, "count": "20"}, &timeline); err != nil {
		return nil, err
	}

	var first, exact *tweetLegacy
	for _, ins := range timeline.Result.Timeline.Instructions {
		if ins.Type != "TimelineAddEntries" {
			continue
		}
		for _, e := range ins.Entries {
			res := e.Content.ItemContent.TweetResults.Result
			if !strings.HasPrefix(e.EntryID, "tweet-") || res == nil {
				continue
			}
			legacy := res.Legacy
			if first == nil {
				first = &legacy
			}
			if res.RestID == statusID || legacy.IDStr == statusID {
				exact = &legacy
			}
		}
	}
	tweet := exact
	if tweet == nil {
		tweet = first
	}
	if tweet == nil {
		return nil, errNoPostFound
	}

	m := &domain.VideoMetadata{
		Title:       firstNonEmpty(truncate(tweet.FullText, 100), "Twitter/X Post"),
		Description: firstNonEmpty(tweet.FullText, "Post from Twitter/X"),
		Author:      username,
		VideoURL:    url,
		Hashtags:    []string{},
	}
	if len(tweet.Entities.Media) > 0 {
		m.ThumbnailURL = tweet.Entities.Media[0].MediaURLHTTPS
	}
	for _, h := range tweet.Entities.Hashtags {
		m.Hashtags = append(m.Hashtags, h.Text)
	}
	if at, err := time.Parse(twitterTimeLayout, tweet.CreatedAt); err == nil {
		m.PostedAt = at.Unix()
	}
	return m, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
