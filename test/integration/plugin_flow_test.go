// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/storyforge/storyforge/internal/plugin"
	"github.com/storyforge/storyforge/internal/story"
	"github.com/storyforge/storyforge/pkg/pluginsdk"
)

// fakeBackend is an in-memory stand-in for the backend plugin catalog. It
// implements the /api/v1/plugins surface the Registry client speaks.
type fakeBackend struct {
	mu      sync.Mutex
	nextID  int64
	plugins map[int64]*plugin.PluginDTO
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{nextID: 1, plugins: make(map[int64]*plugin.PluginDTO)}
}

func (b *fakeBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/plugins", b.list)
	mux.HandleFunc("POST /api/v1/plugins", b.create)
	mux.HandleFunc("PUT /api/v1/plugins/{id}/enable", b.setEnabled(true))
	mux.HandleFunc("PUT /api/v1/plugins/{id}/disable", b.setEnabled(false))
	mux.HandleFunc("POST /api/v1/plugins/{id}/ping", b.ping)
	mux.HandleFunc("DELETE /api/v1/plugins/{id}", b.remove)
	return mux
}

func (b *fakeBackend) list(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := plugin.PluginList{Plugins: []plugin.PluginDTO{}, Page: 1, PageSize: 200}
	for _, dto := range b.plugins {
		out.Plugins = append(out.Plugins, *dto)
	}
	out.Total = len(out.Plugins)
	writeJSON(w, http.StatusOK, out)
}

func (b *fakeBackend) create(w http.ResponseWriter, r *http.Request) {
	var req plugin.CreatePluginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	dto := &plugin.PluginDTO{
		ID:          b.nextID,
		Name:        req.Name,
		Version:     req.Version,
		Author:      req.Author,
		Description: req.Description,
		Endpoint:    req.Endpoint,
	}
	b.nextID++
	b.plugins[dto.ID] = dto
	writeJSON(w, http.StatusCreated, *dto)
}

func (b *fakeBackend) setEnabled(enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		dto, ok := b.plugins[pathID(r)]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "plugin not found"})
			return
		}
		dto.IsEnabled = enabled
		writeJSON(w, http.StatusOK, *dto)
	}
}

// ping probes the plugin's manifest endpoint the way the real backend
// does, then records health and latency on the catalog entry.
func (b *fakeBackend) ping(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	dto, ok := b.plugins[pathID(r)]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "plugin not found"})
		return
	}

	start := time.Now()
	resp, err := http.Get(strings.TrimRight(dto.Endpoint, "/") + "/manifest") //nolint:noctx // test helper
	healthy := err == nil && resp.StatusCode == http.StatusOK
	if resp != nil {
		resp.Body.Close() //nolint:errcheck
	}

	b.mu.Lock()
	dto.Healthy = healthy
	dto.LastPing = time.Now().UTC().Format(time.RFC3339)
	dto.LatencyMS = time.Since(start).Milliseconds() + 1
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, *dto)
}

func (b *fakeBackend) remove(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.plugins[pathID(r)]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "plugin not found"})
		return
	}
	delete(b.plugins, pathID(r))
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// proseToolsManifest is the manifest of the test plugin built on the SDK.
var proseToolsManifest = pluginsdk.Manifest{
	ID:      "prose-tools",
	Name:    "Prose Tools",
	Version: "1.2.0",
	Author:  "Integration Suite",
	Capabilities: []pluginsdk.Capability{
		{ID: "tighten-prose", Name: "Tighten Prose", Type: "text_processor"},
		{ID: "noisy", Name: "Noisy", Type: "logic_checker"},
	},
}

func proseToolsHandler(_ context.Context, req pluginsdk.ActionRequest) ([]pluginsdk.Instruction, error) {
	switch req.ActionID {
	case "tighten-prose":
		if req.Context.ActiveDocument == nil {
			return []pluginsdk.Instruction{pluginsdk.ShowMessage("Open a chapter first.", "warning")}, nil
		}
		tightened := strings.Join(strings.Fields(req.Context.ActiveDocument.Content), " ")
		return []pluginsdk.Instruction{
			pluginsdk.UpdateDocument(map[string]any{"content": tightened, "status": "revising"}),
			pluginsdk.ShowMessage("Tightened the prose.", "success"),
			pluginsdk.AddLog("tightened " + req.Context.ActiveDocument.Title),
		}, nil
	case "noisy":
		// One valid, one malformed, one unrecognized instruction: the
		// host must apply what it can and report the rest.
		return []pluginsdk.Instruction{
			{Type: "update_entity", Payload: map[string]any{"content": "no id here"}},
			{Type: "launch_rocket", Payload: map[string]any{"target": "moon"}},
			pluginsdk.ShowMessage("Still standing.", "info"),
		}, nil
	default:
		return []pluginsdk.Instruction{pluginsdk.ShowMessage("Unknown action.", "error")}, nil
	}
}

var _ = Describe("Plugin integration flow", func() {
	var (
		ctx       context.Context
		pluginSrv *httptest.Server
		backend   *fakeBackend
		backSrv   *httptest.Server
		reg       *plugin.Registry
		client    *plugin.Client
		store     *story.Store
	)

	BeforeEach(func() {
		ctx = context.Background()

		pluginSrv = httptest.NewServer(pluginsdk.NewHTTPHandler(proseToolsManifest, pluginsdk.HandlerFunc(proseToolsHandler)))
		backend = newFakeBackend()
		backSrv = httptest.NewServer(backend.handler())

		reg = plugin.NewRegistry(backSrv.URL)
		client = plugin.NewClient()

		store = story.NewStore()
		proj := story.NewProject("Tide and Iron")
		store.CreateProject(proj)
		store.SelectProject(proj.ID)
		vol := store.AddVolume(story.VolumePatch{Title: strPtr("Act One")})
		store.AddDocument(vol.ID, story.DocumentPatch{
			Title:   strPtr("Chapter 1"),
			Content: strPtr("The  harbor   lay   silent."),
		})
	})

	AfterEach(func() {
		pluginSrv.Close()
		backSrv.Close()
	})

	// register probes the plugin, enters it into the catalog, enables it,
	// waits for the first successful health ping, and syncs the catalog
	// into the active project.
	register := func() story.Plugin {
		_, total, err := reg.ListPlugins(ctx, 1, 200)
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(BeZero(), "catalog must start empty")

		probe := client.Probe(ctx, pluginSrv.URL)
		Expect(probe).NotTo(BeNil())
		Expect(probe.Manifest.ID).To(Equal("prose-tools"))
		Expect(probe.Manifest.Validate()).To(Succeed())

		created, err := reg.Create(ctx, plugin.CreatePluginRequest{
			Name:     probe.Manifest.Name,
			Version:  probe.Manifest.Version,
			Author:   probe.Manifest.Author,
			Endpoint: pluginSrv.URL,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(created.Enabled).To(BeFalse(), "a freshly created plugin starts disabled")
		Expect(created.Status).To(BeEmpty(), "status stays unset before the first ping")
		Expect(reg.Enable(ctx, created.ID)).To(Succeed())

		online, err := reg.AwaitOnline(ctx, created.ID, 5*time.Second)
		Expect(err).NotTo(HaveOccurred())
		Expect(online.Status).To(Equal(story.PluginOnline))

		plugins, total, err := reg.ListPlugins(ctx, 1, 200)
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(1))
		store.SetPlugins(plugins)

		proj, ok := store.ActiveProject()
		Expect(ok).To(BeTrue())
		pl, ok := proj.Plugin(created.ID)
		Expect(ok).To(BeTrue())
		Expect(pl.Enabled).To(BeTrue())
		return *pl
	}

	It("registers, enables and invokes a plugin end to end", func() {
		pl := register()

		proj, _ := store.ActiveProject()
		doc, _ := proj.Document(store.ActiveDocumentID())
		result := client.Invoke(ctx, pl, "tighten-prose", plugin.NewActionContext(proj, doc), nil)
		Expect(result.Success).To(BeTrue(), "invoke failed: %s", result.Error)
		Expect(result.Instructions).To(HaveLen(3))
		Expect(result.Latency).To(BeNumerically(">", 0))

		console := plugin.NewConsole(nil)
		exec := plugin.NewExecutor(plugin.Hooks{
			UpdateDocument:   store.UpdateDocument,
			UpdateEntity:     store.UpdateEntity,
			ActiveDocumentID: store.ActiveDocumentID,
			Message: func(text string, severity plugin.Severity) {
				console.Append(severity, text)
			},
			Log: console.Append,
		}, nil)

		res := exec.Execute(result.Instructions)
		Expect(res.Applied).To(Equal(3))
		Expect(res.Failed).To(BeZero())
		Expect(res.Skipped).To(BeZero())

		proj, _ = store.ActiveProject()
		doc, _ = proj.Document(store.ActiveDocumentID())
		Expect(doc.Content).To(Equal("The harbor lay silent."))
		Expect(doc.Status).To(Equal(story.StatusRevising))

		entries := console.Entries()
		Expect(entries).To(HaveLen(2))
		Expect(entries[0].Message).To(Equal("Tightened the prose."))
		Expect(entries[0].Severity).To(Equal(plugin.SeveritySuccess))
		Expect(entries[1].Message).To(Equal(`[Plugin Log]: "tightened Chapter 1"`))
	})

	It("applies what it can when a batch carries faulty instructions", func() {
		pl := register()

		proj, _ := store.ActiveProject()
		doc, _ := proj.Document(store.ActiveDocumentID())
		result := client.Invoke(ctx, pl, "noisy", plugin.NewActionContext(proj, doc), nil)
		Expect(result.Success).To(BeTrue(), "invoke failed: %s", result.Error)

		var messages []string
		console := plugin.NewConsole(nil)
		exec := plugin.NewExecutor(plugin.Hooks{
			UpdateEntity: store.UpdateEntity,
			Message: func(text string, severity plugin.Severity) {
				messages = append(messages, text)
				console.Append(severity, text)
			},
			Log: console.Append,
		}, nil)

		res := exec.Execute(result.Instructions)
		Expect(res.Applied).To(Equal(1))
		Expect(res.Failed).To(Equal(1))
		Expect(res.Skipped).To(Equal(1))

		Expect(messages).To(HaveLen(2))
		Expect(messages[0]).To(ContainSubstring("Failed to execute action [update_entity]:"))
		Expect(messages[1]).To(Equal("Still standing."))

		var logged []string
		for _, e := range console.Entries() {
			logged = append(logged, e.Message)
		}
		Expect(logged).To(ContainElement(`Plugin instruction kind "launch_rocket" is not supported.`))
	})

	It("persists registered plugins across save and load", func() {
		register()

		proj, _ := store.ActiveProject()
		path := filepath.Join(GinkgoT().TempDir(), "project.yaml")
		Expect(story.SaveProject(path, proj)).To(Succeed())

		loaded, err := story.LoadProject(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.ID).To(Equal(proj.ID))
		Expect(loaded.Plugins).To(HaveLen(1))
		Expect(loaded.Plugins[0].Name).To(Equal("Prose Tools"))
		Expect(loaded.Plugins[0].Endpoint).To(Equal(pluginSrv.URL))
		Expect(loaded.Plugins[0].Enabled).To(BeTrue())
	})

	It("refuses to invoke a disabled plugin without touching the network", func() {
		pl := register()
		Expect(reg.Disable(ctx, pl.ID)).To(Succeed())

		plugins, _, err := reg.ListPlugins(ctx, 1, 200)
		Expect(err).NotTo(HaveOccurred())
		store.SetPlugins(plugins)
		pluginSrv.Close()

		proj, _ := store.ActiveProject()
		disabled, ok := proj.Plugin(pl.ID)
		Expect(ok).To(BeTrue())
		result := client.Invoke(ctx, *disabled, "tighten-prose", plugin.NewActionContext(proj, nil), nil)
		Expect(result.Success).To(BeFalse())
		Expect(result.Error).To(Equal("Plugin is currently disabled."))
		Expect(result.Latency).To(BeZero())
	})

	It("reports a vanished plugin as unreachable", func() {
		pl := register()
		pluginSrv.Close()

		proj, _ := store.ActiveProject()
		result := client.Invoke(ctx, pl, "tighten-prose", plugin.NewActionContext(proj, nil), nil)
		Expect(result.Success).To(BeFalse())
		Expect(result.Error).To(Equal("Network error: Service unreachable or CORS blocked."))
	})

	It("removes a plugin from the catalog without touching the project", func() {
		pl := register()
		Expect(reg.Delete(ctx, pl.ID)).To(Succeed())

		_, total, err := reg.ListPlugins(ctx, 1, 200)
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(BeZero())

		proj, _ := store.ActiveProject()
		Expect(proj.Plugins).To(HaveLen(1), "catalog removal must not cascade into the project")
	})
})

func strPtr(s string) *string { return &s }
