package task

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/notesphere/note-sync-service/internal/app"
	pkgapp "github.com/notesphere/note-sync-service/pkg/app"
	"golang.org/x/mod/semver"
)

const (
	ServiceVersionURL = "https://img.shields.io/github/v/release/notesphere/note-sync-service.json"
	ClientVersionURL  = "https://img.shields.io/github/v/tag/notesphere/note-sync-client.json"
)

type ShieldsJSON struct {
	Message string `json:"message"`
}

type CheckVersionTask struct {
	app *app.App
}

func init() {
	RegisterWithApp(func(appContainer *app.App) (Task, error) {
		return &CheckVersionTask{
			app: appContainer,
		}, nil
	})
}

func (t *CheckVersionTask) Name() string {
	return "check_version"
}

func (t *CheckVersionTask) Run(ctx context.Context) error {
	serviceLatest, err := t.fetchVersion(ctx, ServiceVersionURL)
	if err != nil {
		return err
	}

	clientLatest, err := t.fetchVersion(ctx, ClientVersionURL)
	if err != nil {
		return err
	}

	currentServiceVersion := t.app.Version().Version
	if !strings.HasPrefix(currentServiceVersion, "v") {
		currentServiceVersion = "v" + currentServiceVersion
	}

	if !strings.HasPrefix(serviceLatest, "v") {
		serviceLatest = "v" + serviceLatest
	}

	if !strings.HasPrefix(clientLatest, "v") {
		clientLatest = "v" + clientLatest
	}

	info := pkgapp.CheckVersionInfo{
		VersionNewName:       serviceLatest,
		VersionIsNew:         semver.Compare(serviceLatest, currentServiceVersion) > 0,
		ClientVersionNewName: clientLatest,
		// 这里无法判定 ClientVersionIsNew，因为没有具体的客户端版本，
		// 具体的比较在 App.CheckVersion 中根据客户端上报的版本号进行。
	}

	// 更新 App 中的版本信息
	t.app.SetCheckVersionInfo(info)

	return nil
}

func (t *CheckVersionTask) fetchVersion(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var sj ShieldsJSON
	if err := json.Unmarshal(body, &sj); err != nil {
		return "", err
	}

	return sj.Message, nil
}

func (t *CheckVersionTask) LoopInterval() time.Duration {
	return 30 * time.Minute
}

func (t *CheckVersionTask) IsStartupRun() bool {
	return true
}
