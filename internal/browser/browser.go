package browser

import "mailfetch/internal/logging"

type Browser interface {
	PageTitle(url string) (string, error)
}

// LogTitle opens url with b and logs the page title
func LogTitle(b Browser, url string) (string, error) {
	title, err := b.PageTitle(url)
	if err != nil {
		logging.Log.WithField("url", url).WithError(err).Error("Browser error")
		return "", err
	}
	logging.Log.WithField("url", url).Infof("Website title: %s", title)
	return title, nil
}
