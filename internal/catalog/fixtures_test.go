package catalog

import "carbridge/pkg/models"

func testLibrary() models.MediaLibrary {
	return models.MediaLibrary{
		RecentTracks: []models.MediaItem{
			{ID: "track_1", Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera", ArtworkURL: "https://example.com/queen.jpg", Duration: 354000, IsPlayable: true},
			{ID: "track_2", Title: "Stairway to Heaven", Artist: "Led Zeppelin", Album: "Led Zeppelin IV", Duration: 482000, IsPlayable: true},
			{ID: "track_3", Title: "Hotel California", Artist: "Eagles", Album: "Hotel California", Duration: 391000, IsPlayable: true},
		},
		Playlists: []models.MediaCategory{
			{
				ID: "rock", Title: "Rock Classics", Subtitle: "50 tracks", ArtworkURL: "https://example.com/rock.jpg",
				Items: []models.MediaItem{
					{ID: "track_4", Title: "Sweet Child O' Mine", Artist: "Guns N' Roses", Duration: 356000, IsPlayable: true},
					{ID: "track_5", Title: "Smoke on the Water", Artist: "Deep Purple", Duration: 340000, IsPlayable: true},
				},
			},
			{
				ID: "chill", Title: "Chill Vibes",
				Items: []models.MediaItem{
					{ID: "track_6", Title: "Wonderwall", Artist: "Oasis", Duration: 258000, IsPlayable: true},
				},
			},
		},
		Albums: []models.MediaCategory{
			{
				ID: "queen", Title: "A Night at the Opera", Subtitle: "Queen",
				Items: []models.MediaItem{
					{ID: "track_1", Title: "Bohemian Rhapsody", Artist: "Queen", Album: "A Night at the Opera", Duration: 354000, IsPlayable: true},
					{ID: "track_7", Title: "You're My Best Friend", Artist: "Queen", Album: "A Night at the Opera", Duration: 172000, IsPlayable: true},
				},
			},
		},
		Artists: []models.MediaCategory{
			{
				ID: "queen", Title: "Queen",
				Items: []models.MediaItem{
					{ID: "track_1", Title: "Bohemian Rhapsody", Artist: "Queen", Duration: 354000, IsPlayable: true},
					{ID: "track_8", Title: "We Will Rock You", Artist: "Queen", Duration: 122000, IsPlayable: true},
				},
			},
		},
	}
}
