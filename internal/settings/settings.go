// Package settings loads the store profile printed on every receipt
package settings

import (
	"log"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/thereceipt/kantin-receipt/pkg/receiptformat"
)

// Store holds the current store profile and reloads it from disk on demand
type Store struct {
	path     string
	v        *viper.Viper
	mu       sync.RWMutex
	profile  receiptformat.StoreProfile
	loaded   bool
	onChange func(receiptformat.StoreProfile)
}

// Load reads the profile file at path. A missing or broken file is not an
// error: the built-in profile is used and a warning is logged.
func Load(path string) *Store {
	s := &Store{path: path, v: newViper(path)}
	s.Reload()
	return s
}

func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("yaml")
	}

	def := receiptformat.DefaultStoreProfile()
	v.SetDefault("receipt.header", def.Header)
	v.SetDefault("receipt.tagline", def.Tagline)
	v.SetDefault("receipt.footer", def.Footer)
	v.SetDefault("store.name", def.StoreName)
	v.SetDefault("store.address", def.Address)
	v.SetDefault("store.phone", def.Phone)

	return v
}

// Reload re-reads the profile file
func (s *Store) Reload() error {
	if err := s.v.ReadInConfig(); err != nil {
		log.Printf("⚠️  store profile %s not loaded, using defaults: %v", s.path, err)
		s.set(receiptformat.DefaultStoreProfile(), false)
		return err
	}
	s.set(s.fromViper(), true)
	return nil
}

func (s *Store) fromViper() receiptformat.StoreProfile {
	return receiptformat.StoreProfile{
		Header:    s.v.GetString("receipt.header"),
		Tagline:   s.v.GetString("receipt.tagline"),
		Footer:    s.v.GetString("receipt.footer"),
		StoreName: s.v.GetString("store.name"),
		Address:   s.v.GetString("store.address"),
		Phone:     s.v.GetString("store.phone"),
	}
}

func (s *Store) set(p receiptformat.StoreProfile, loaded bool) {
	s.mu.Lock()
	s.profile = p
	s.loaded = loaded
	notify := s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify(p)
	}
}

// Profile returns the current store profile
func (s *Store) Profile() receiptformat.StoreProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// Loaded reports whether the profile came from the file
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// OnChange sets a callback invoked after every reload
func (s *Store) OnChange(callback func(receiptformat.StoreProfile)) {
	s.mu.Lock()
	s.onChange = callback
	s.mu.Unlock()
}

// Watch reloads the profile whenever the file changes. It does nothing when
// the file was not found at startup.
func (s *Store) Watch() {
	if !s.Loaded() {
		return
	}
	s.v.OnConfigChange(func(e fsnotify.Event) {
		log.Printf("📝 Store profile changed (%s), reloading", e.Name)
		s.set(s.fromViper(), true)
	})
	s.v.WatchConfig()
}
