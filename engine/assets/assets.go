package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/spaghettifunk/ombra/engine/assets/loaders"
	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
)

type AssetInfo struct {
	ID         string
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
	}, nil
}

func (am *AssetManager) Initialize(assetsDir string) error {
	go am.start()

	if err := am.addRecursive(assetsDir); err != nil {
		return err
	}

	// Register loaders
	am.registerLoader(metadata.ResourceTypeScene, &loaders.SceneLoader{})
	am.registerLoader(metadata.ResourceTypeBinary, &loaders.BinaryLoader{})

	return nil
}

// AddRecursive starts watching the named directory and all sub-directories.
func (am *AssetManager) addRecursive(name string) error {
	if am.isClosed {
		return errors.New("asset watcher already closed")
	}
	return am.watchRecursive(name, false)
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Load an asset using the appropriate loader
func (am *AssetManager) LoadAsset(filename string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	var path string
	switch resourceType {
	case metadata.ResourceTypeScene:
		path = fmt.Sprintf("assets/scenes/%s.toml", filename)
	case metadata.ResourceTypeBinary:
		path = filename
	default:
		err := fmt.Errorf("unknown resource type")
		return nil, err
	}

	am.mutex.Lock()
	asset, exists := am.assets[path]
	if !exists {
		am.mutex.Unlock()
		return nil, fmt.Errorf("asset not found: %s", path)
	}
	asset.LastLoaded = time.Now()
	am.assets[path] = asset
	am.mutex.Unlock()

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %d", asset.Type)
	}

	return loader.Load(path, resourceType, params)
}

// LoadAssetFromPath loads a watched asset by its indexed path instead of
// a type-derived one. File watcher events carry paths, not names.
func (am *AssetManager) LoadAssetFromPath(path string, params interface{}) (*metadata.Resource, error) {
	am.mutex.Lock()
	asset, exists := am.assets[path]
	if !exists {
		am.mutex.Unlock()
		return nil, fmt.Errorf("asset not found: %s", path)
	}
	asset.LastLoaded = time.Now()
	am.assets[path] = asset
	am.mutex.Unlock()

	loader, loaderExists := am.loaders[asset.Type]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %d", asset.Type)
	}

	return loader.Load(path, asset.Type, params)
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	return nil
}

func (am *AssetManager) Shutdown() error {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	return nil
}

func (am *AssetManager) start() {
	for {
		select {

		case e := <-am.fsnotify.Events:
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					am.watchRecursive(e.Name, false)
				}
			}
			// Handle create or modify events
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.handleFileEvent(e.Name, true)
			}
			// Can't stat a deleted directory, so just pretend that it's always a directory and
			// try to remove from the watch list... we really have no clue if it's a directory or not...
			if e.Op&fsnotify.Remove != 0 {
				am.removeAsset(e.Name)
				am.fsnotify.Remove(e.Name)
			}

		case e := <-am.fsnotify.Errors:
			core.LogError(e.Error())

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

// watchRecursive adds all directories under the given one to the watch list.
// this is probably a very racey process. What if a file is added to a folder before we get the watch added?
func (am *AssetManager) watchRecursive(path string, unWatch bool) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	wd = wd + "/" // add trailing slash
	err = filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if unWatch {
				if err = am.fsnotify.Remove(walkPath); err != nil {
					return err
				}
			} else {
				if err = am.fsnotify.Add(walkPath); err != nil {
					return err
				}
			}
		} else {
			p := strings.TrimPrefix(walkPath, wd)
			am.handleFileEvent(p, false)
		}
		return nil
	})
	return err
}

// handleFileEvent indexes a created or modified file. Changes to already
// indexed scene files are announced on the event bus so the engine can
// schedule a reload.
func (am *AssetManager) handleFileEvent(path string, notify bool) {
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return
	}

	am.mutex.Lock()
	info, known := am.assets[path]
	if !known {
		info = AssetInfo{
			ID:   uuid.New().String(),
			Path: path,
			Type: assetType,
		}
	}
	info.LastLoaded = time.Now()
	am.assets[path] = info
	am.mutex.Unlock()

	if notify && assetType == metadata.ResourceTypeScene {
		ctx := core.EventContext{}
		ctx.Data.Str = path
		core.EventFire(core.EVENT_CODE_SCENE_FILE_CHANGED, ctx)
	}
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, path)
}

func determineAssetType(path string) metadata.ResourceType {
	switch filepath.Ext(path) {
	case ".toml":
		return metadata.ResourceTypeScene
	case ".bin", ".dat":
		return metadata.ResourceTypeBinary
	default:
		return metadata.ResourceTypeNone
	}
}
