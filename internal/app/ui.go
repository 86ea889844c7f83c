package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"yashubustudio/subjectmerge/subjectmerge"
)

const logDebounceInterval = 150 * time.Millisecond

type uiState struct {
	session    *subjectmerge.Session
	cfg        subjectmerge.Config
	configPath string
	logger     *log.Logger

	w           fyne.Window
	rosterLabel *widget.Label
	filesLabel  *widget.Label
	idSelect    *widget.Select
	labelEntry  *widget.Entry
	covCheck    *widget.Check
	log         *widget.Entry
	status      *widget.Label
	resTbl      *widget.Table

	statusBind  binding.String
	logBind     binding.String
	logLines    []string
	logMu       sync.Mutex
	logUpdateCh chan struct{}

	choices []columnChoice
	files   []subjectmerge.File

	resultMu sync.Mutex
	result   *subjectmerge.Table
	preview  previewData
	buildGen atomic.Uint64

	rosterBtn *widget.Button
	folderBtn *widget.Button
	fileBtn   *widget.Button
	buildBtn  *widget.Button
	exportBtn *widget.Button
}

func buildUI(a fyne.App, cfg subjectmerge.Config, configPath string) *uiState {
	u := &uiState{cfg: cfg, configPath: configPath}
	u.w = a.NewWindow("Subject Merge - 被験者サマリ統合")

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("準備完了")
	u.logBind = binding.NewString()
	u.startLogUpdater()
	u.logger = log.New(io.MultiWriter(os.Stdout, logWriter{u}), "", 0)
	u.session = subjectmerge.NewSession(cfg, u.logger)

	u.rosterLabel = widget.NewLabel("名簿: 未読込")
	u.filesLabel = widget.NewLabel(formatFileSummary(0))

	u.idSelect = widget.NewSelect(nil, func(label string) {
		if c, ok := choiceByLabel(u.choices, label); ok {
			u.cfg.IDColumn = c.Column
			u.saveConfig()
		}
	})
	u.idSelect.PlaceHolder = "ID列を選択"

	u.labelEntry = widget.NewEntry()
	u.labelEntry.SetText(cfg.LabelTemplate)
	u.labelEntry.SetPlaceHolder(subjectmerge.DefaultLabelTemplate)
	u.labelEntry.OnSubmitted = func(string) { u.onBuild() }

	u.covCheck = widget.NewCheck("名簿の他の列を追加", func(b bool) {
		u.cfg.IncludeCovariates = b
		u.saveConfig()
	})
	u.covCheck.SetChecked(cfg.IncludeCovariates)

	u.log = widget.NewEntryWithData(u.logBind)
	u.log.MultiLine = true
	u.log.Wrapping = fyne.TextWrapWord
	u.log.SetPlaceHolder("処理ログ")
	u.log.Disable()

	u.status = widget.NewLabelWithData(u.statusBind)

	u.rosterBtn = widget.NewButtonWithIcon("名簿読込", theme.FolderOpenIcon(), func() { u.onLoadRoster() })
	u.folderBtn = widget.NewButtonWithIcon("フォルダ読込", theme.FolderIcon(), func() { u.onLoadFolder() })
	u.fileBtn = widget.NewButtonWithIcon("ファイル追加", theme.ContentAddIcon(), func() { u.onAddFile() })
	u.buildBtn = widget.NewButtonWithIcon("統合実行", theme.ConfirmIcon(), func() { u.onBuild() })
	u.exportBtn = widget.NewButtonWithIcon("CSVエクスポート", theme.DocumentSaveIcon(), func() { u.onExport() })
	u.exportBtn.Disable()

	u.resTbl = widget.NewTable(
		func() (int, int) {
			u.resultMu.Lock()
			defer u.resultMu.Unlock()
			return u.preview.size()
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			lbl := obj.(*widget.Label)
			u.resultMu.Lock()
			text := u.preview.cell(id.Row, id.Col)
			u.resultMu.Unlock()
			lbl.SetText(text)
			if id.Row == 0 {
				lbl.TextStyle = fyne.TextStyle{Bold: true}
				lbl.Alignment = fyne.TextAlignCenter
			} else {
				lbl.TextStyle = fyne.TextStyle{}
				lbl.Alignment = fyne.TextAlignLeading
			}
		},
	)

	form := &widget.Form{Items: []*widget.FormItem{
		{Text: "ID列", Widget: u.idSelect},
		{Text: "行ラベル", Widget: u.labelEntry, HintText: "{id} = 元のID, {base} = 拡張子なし"},
		{Text: "共変量", Widget: u.covCheck},
	}}

	logScroll := container.NewVScroll(u.log)
	logScroll.SetMinSize(fyne.NewSize(200, 160))

	left := container.NewVBox(
		widget.NewLabelWithStyle("入力", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewGridWithColumns(3, u.rosterBtn, u.folderBtn, u.fileBtn),
		u.rosterLabel,
		u.filesLabel,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("設定", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		form,
		container.NewGridWithColumns(2, u.buildBtn, u.exportBtn),
		u.status,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("ログ", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		logScroll,
	)

	right := container.NewBorder(nil, nil, nil, nil, u.resTbl)
	split := container.NewHSplit(left, right)
	split.Offset = 0.35

	u.w.SetContent(split)
	u.w.Resize(fyne.NewSize(1180, 760))
	return u
}

func (u *uiState) saveConfig() {
	cfg := u.cfg
	cfg.LabelTemplate = strings.TrimSpace(u.labelEntry.Text)
	u.cfg = u.session.UpdateConfig(cfg)
	if err := subjectmerge.SaveConfig(u.configPath, u.cfg); err != nil {
		u.appendLog(fmt.Sprintf("設定の保存に失敗しました: %v", err))
	}
}

func (u *uiState) setBusy(b bool) {
	fyne.Do(func() {
		buttons := []*widget.Button{u.rosterBtn, u.folderBtn, u.fileBtn, u.buildBtn}
		for _, btn := range buttons {
			if b {
				btn.Disable()
			} else {
				btn.Enable()
			}
		}
	})
}

func (u *uiState) onLoadRoster() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		name := rc.URI().Name()
		roster, err := u.session.SetRoster(name, data)
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.applyRoster(name, roster)
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".tsv", ".txt"}))
	fd.Show()
}

func (u *uiState) applyRoster(name string, roster *subjectmerge.Roster) {
	u.choices = buildColumnChoices(roster)
	u.idSelect.Options = choiceLabels(u.choices)
	u.idSelect.ClearSelected()
	column := u.cfg.IDColumn
	if !roster.HasColumn(column) {
		column = roster.SuggestIDColumn()
	}
	if c, ok := choiceFor(u.choices, column); ok {
		u.idSelect.SetSelected(c.Label)
	}
	u.idSelect.Refresh()
	u.rosterLabel.SetText(printer.Sprintf("名簿: %s (%d行, %d列)", name, len(roster.Rows), len(roster.Columns)))
}

func (u *uiState) onLoadFolder() {
	fd := dialog.NewFolderOpen(func(dir fyne.ListableURI, err error) {
		if err != nil || dir == nil {
			return
		}
		path := dir.Path()
		exts, workers := u.cfg.SubjectExtensions, u.cfg.Workers
		u.setBusy(true)
		u.setStatus("読込中...")
		go func() {
			defer u.setBusy(false)
			files, err := subjectmerge.LoadDir(context.Background(), path, exts, workers)
			if err != nil {
				u.setStatus("エラー")
				fyne.Do(func() { dialog.ShowError(err, u.w) })
				return
			}
			fyne.Do(func() {
				u.files = files
				u.session.SetFiles(u.files)
				u.filesLabel.SetText(formatFileSummary(len(u.files)))
			})
			u.setStatus("準備完了")
		}()
	}, u.w)
	fd.Show()
}

func (u *uiState) onAddFile() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		files := append(append([]subjectmerge.File(nil), u.files...), subjectmerge.File{Name: rc.URI().Name(), Data: data})
		u.files = files
		u.session.SetFiles(files)
		u.filesLabel.SetText(formatFileSummary(len(files)))
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter(u.cfg.SubjectExtensions))
	fd.Show()
}

func (u *uiState) onBuild() {
	if u.session.Roster() == nil {
		dialog.ShowInformation("情報", "名簿を読み込んでください", u.w)
		return
	}
	c, ok := choiceByLabel(u.choices, u.idSelect.Selected)
	if !ok {
		dialog.ShowInformation("情報", "ID列を選択してください", u.w)
		return
	}
	u.cfg.IDColumn = c.Column
	u.saveConfig()
	opts := u.cfg.BuildOptions
	limit := u.cfg.PreviewRows
	gen := u.buildGen.Add(1)

	u.setBusy(true)
	u.setStatus("処理中...")
	start := time.Now()
	go func() {
		defer u.setBusy(false)
		table, err := u.session.Build(context.Background(), opts)
		if gen != u.buildGen.Load() {
			return
		}
		if err != nil {
			msg := err.Error()
			if errors.Is(err, subjectmerge.ErrNoSubjects) {
				msg = "名簿にIDが見つかりません"
			}
			u.setStatus("エラー")
			fyne.Do(func() {
				u.setResult(nil, limit)
				dialog.ShowError(errors.New(msg), u.w)
			})
			return
		}
		fyne.Do(func() {
			u.setResult(table, limit)
		})
		u.setStatus(fmt.Sprintf("%s (%.1fs)", formatBuildSummary(table), time.Since(start).Seconds()))
	}()
}

func (u *uiState) setResult(t *subjectmerge.Table, limit int) {
	u.resultMu.Lock()
	u.result = t
	u.preview = newPreviewData(t, limit)
	cols := len(u.preview.Header)
	hidden := u.preview.Hidden
	u.resultMu.Unlock()

	for i := 0; i < cols; i++ {
		width := float32(metricColWidth)
		if i == 0 {
			width = labelColWidth
		}
		u.resTbl.SetColumnWidth(i, width)
	}
	u.resTbl.SetRowHeight(0, headerRowHeight)
	u.resTbl.Refresh()
	if t == nil {
		u.exportBtn.Disable()
		return
	}
	u.exportBtn.Enable()
	if hidden > 0 {
		u.appendLog(printer.Sprintf("プレビューは先頭%d行のみ表示 (残り%d行)", limit, hidden))
	}
}

func (u *uiState) onExport() {
	u.resultMu.Lock()
	table := u.result
	u.resultMu.Unlock()
	if table == nil {
		dialog.ShowInformation("情報", "出力データがありません", u.w)
		return
	}
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()
		if err := subjectmerge.WriteCSV(uc, table); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.appendLog(printer.Sprintf("CSVエクスポート完了 (%d件)", len(table.Rows)))
	}, u.w)
	fd.SetFileName("merged.csv")
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv"}))
	fd.Show()
}

// logWriter feeds session log output into the log panel.
type logWriter struct{ u *uiState }

func (l logWriter) Write(p []byte) (int, error) {
	text := strings.ReplaceAll(string(p), "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if line != "" {
			l.u.appendLog(line)
		}
	}
	return len(p), nil
}

func (u *uiState) appendLog(msg string) {
	now := time.Now().Format("15:04:05")
	line := fmt.Sprintf("[%s] %s", now, msg)

	u.logMu.Lock()
	u.logLines = append(u.logLines, line)
	if len(u.logLines) > maxLogLines {
		u.logLines = u.logLines[len(u.logLines)-maxLogLines:]
	}
	u.logMu.Unlock()

	if u.logUpdateCh == nil {
		u.flushLog()
		return
	}
	select {
	case u.logUpdateCh <- struct{}{}:
	default:
	}
}

func (u *uiState) startLogUpdater() {
	if u.logUpdateCh != nil {
		return
	}
	u.logUpdateCh = make(chan struct{}, 1)
	go u.logUpdateLoop()
}

func (u *uiState) logUpdateLoop() {
	timer := time.NewTimer(logDebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-u.logUpdateCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(logDebounceInterval)
		case <-timer.C:
			u.flushLog()
		}
	}
}

func (u *uiState) flushLog() {
	u.logMu.Lock()
	text := strings.Join(u.logLines, "\n")
	u.logMu.Unlock()
	_ = u.logBind.Set(text)
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}
