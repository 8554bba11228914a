package domain

type Settings struct {
	Enabled bool

	QuietHoursEnabled bool
	QuietFrom         string
	QuietTo           string

	RepeatEnabled bool
	RepeatMinutes int
	RepeatCount   int
}

func DefaultSettings() Settings {
	return Settings{
		Enabled:           true,
		QuietHoursEnabled: false,
		QuietFrom:         "23:00",
		QuietTo:           "07:00",
		RepeatEnabled:     true,
		RepeatMinutes:     10,
		RepeatCount:       3,
	}
}
