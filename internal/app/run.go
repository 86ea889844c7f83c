package app

import (
	"fmt"

	fyneapp "fyne.io/fyne/v2/app"

	"yashubustudio/subjectmerge/subjectmerge"
)

// Run loads the configuration and starts the desktop UI.
func Run() error {
	cfg, err := subjectmerge.LoadConfig(defaultConfigFile)
	if err != nil {
		return fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}

	a := fyneapp.NewWithID(fyneAppID)
	u := buildUI(a, cfg, defaultConfigFile)
	u.w.ShowAndRun()
	return nil
}
