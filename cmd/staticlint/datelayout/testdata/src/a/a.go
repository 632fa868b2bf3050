package a

import "time"

const dayLayout = "2006-01-02" // want `date layout "2006-01-02" should be models.DateLayout`

func today() string {
	return time.Now().Format(dayLayout)
}

func parse(raw string) (time.Time, error) {
	return time.Parse("2006/01/02", raw) // want `date layout "2006/01/02" should be models.DateLayout`
}

func stamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
