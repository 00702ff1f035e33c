/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package settings

import (
	"errors"
	"fmt"

	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"github.com/meower-bci/go-exg/pkg/log"
)

const (
	BucketName = "settings"

	KeyBootCount = "boot_count"
	KeySSID      = "ssid"
	KeyPassword  = "password"
	KeyCapture   = "capture"
)

// Store keeps runtime-changeable settings in a bbolt database so they
// survive a reboot. Values are stored as YAML to keep the file readable
// with plain tooling.
type Store struct {
	DB *bbolt.DB
}

func NewStore(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	if err = db.Update(func(tx *bbolt.Tx) error {
		_, err = tx.CreateBucketIfNotExists([]byte(BucketName))
		return err
	}); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close ...
func (s *Store) Close() {
	s.DB.Close()
}

// Set marshals the value to YAML and stores it under the key.
func (s *Store) Set(key string, value interface{}) error {
	log.Debug("Persisting setting: %s", key)
	data, err := yaml.Marshal(value)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b == nil {
			return errors.New(fmt.Sprintf("Bucket not found: %s", BucketName))
		}
		return b.Put([]byte(key), data)
	})
}

// Get unmarshals the value stored under the key. It returns false when the
// key has never been written.
func (s *Store) Get(key string, value interface{}) (bool, error) {
	var data []byte
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(BucketName))
		if b == nil {
			return errors.New(fmt.Sprintf("Bucket not found: %s", BucketName))
		}
		stored := b.Get([]byte(key))
		if stored != nil {
			data = make([]byte, len(stored))
			copy(data, stored)
		}
		return nil
	}); err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	return true, yaml.Unmarshal(data, value)
}

// IncrementBootCount bumps the persistent boot counter and returns the new value.
func (s *Store) IncrementBootCount() (uint64, error) {
	var count uint64
	if _, err := s.Get(KeyBootCount, &count); err != nil {
		return 0, err
	}
	count++
	if err := s.Set(KeyBootCount, count); err != nil {
		return 0, err
	}
	return count, nil
}

// Erase drops every stored setting. The device comes up with factory
// defaults on the next boot.
func (s *Store) Erase() error {
	log.Info("Erasing persistent settings")
	return s.DB.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(BucketName)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(BucketName))
		return err
	})
}
