// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"time"

	"github.com/devblok/korutri/core"
	vk "github.com/vulkan-go/vulkan"
)

// SyncSet are the synchronization primitives of one frame slot.
type SyncSet struct {
	ImageAvailable vk.Semaphore
	RenderFinished vk.Semaphore
	InFlight       vk.Fence
}

// NewSyncSets creates count sets. Fences start signalled,
// so the first wait on every slot returns at once.
func NewSyncSets(device *Device, count int) (*SyncSets, error) {
	s := &SyncSets{device: device}
	for idx := 0; idx < count; idx++ {
		var set SyncSet
		if err := s.createSemaphores(&set); err != nil {
			s.Release()
			return nil, err
		}

		fci := vk.FenceCreateInfo{
			SType: vk.StructureTypeFenceCreateInfo,
			Flags: vk.FenceCreateFlags(vk.FenceCreateSignaledBit),
		}
		if err := check("sync", core.InitError, "vk.CreateFence()", vk.CreateFence(device.device, &fci, nil, &set.InFlight)); err != nil {
			s.destroySemaphores(set)
			s.Release()
			return nil, err
		}
		device.tracker.Created(objFence, 1)
		s.sets = append(s.sets, set)
	}
	return s, nil
}

// SyncSets holds the SyncSet of every frame slot.
type SyncSets struct {
	device *Device
	sets   []SyncSet
}

// Get returns the set of a slot.
func (s *SyncSets) Get(slot int) SyncSet {
	return s.sets[slot]
}

// Len is the number of slots.
func (s *SyncSets) Len() int {
	return len(s.sets)
}

// Wait blocks until the slot's fence is signalled.
func (s *SyncSets) Wait(slot int, timeout time.Duration) error {
	fences := []vk.Fence{s.sets[slot].InFlight}
	return waitError(vk.WaitForFences(s.device.device, 1, fences, vk.True, uint64(timeout.Nanoseconds())))
}

// waitError classifies a fence wait result. An expired wait is a
// Timeout, anything without a kind of its own is Internal.
func waitError(result vk.Result) error {
	return check("sync", core.Internal, "vk.WaitForFences()", result)
}

// Reset puts the slot's fence back to unsignalled.
func (s *SyncSets) Reset(slot int) error {
	fences := []vk.Fence{s.sets[slot].InFlight}
	return check("sync", core.Internal, "vk.ResetFences()", vk.ResetFences(s.device.device, 1, fences))
}

// RecreateSemaphores replaces every semaphore with an unsignalled one.
// A present that failed leaves its wait semaphore signalled, the device
// must be idle when this is called.
func (s *SyncSets) RecreateSemaphores() error {
	for idx := range s.sets {
		s.destroySemaphores(s.sets[idx])
		s.sets[idx].ImageAvailable = vk.Semaphore(vk.NullHandle)
		s.sets[idx].RenderFinished = vk.Semaphore(vk.NullHandle)
		if err := s.createSemaphores(&s.sets[idx]); err != nil {
			return err
		}
	}
	return nil
}

func (s *SyncSets) createSemaphores(set *SyncSet) error {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}
	if err := check("sync", core.InitError, "vk.CreateSemaphore()", vk.CreateSemaphore(s.device.device, &sci, nil, &set.ImageAvailable)); err != nil {
		return err
	}
	s.device.tracker.Created(objSemaphore, 1)
	if err := check("sync", core.InitError, "vk.CreateSemaphore()", vk.CreateSemaphore(s.device.device, &sci, nil, &set.RenderFinished)); err != nil {
		vk.DestroySemaphore(s.device.device, set.ImageAvailable, nil)
		s.device.tracker.Destroyed(objSemaphore, 1)
		set.ImageAvailable = vk.Semaphore(vk.NullHandle)
		return err
	}
	s.device.tracker.Created(objSemaphore, 1)
	return nil
}

func (s *SyncSets) destroySemaphores(set SyncSet) {
	for _, semaphore := range []vk.Semaphore{set.ImageAvailable, set.RenderFinished} {
		if semaphore == vk.Semaphore(vk.NullHandle) {
			continue
		}
		vk.DestroySemaphore(s.device.device, semaphore, nil)
		s.device.tracker.Destroyed(objSemaphore, 1)
	}
}

// Release destroys every semaphore and fence.
func (s *SyncSets) Release() {
	for _, set := range s.sets {
		s.destroySemaphores(set)
		vk.DestroyFence(s.device.device, set.InFlight, nil)
		s.device.tracker.Destroyed(objFence, 1)
	}
	s.sets = nil
}
