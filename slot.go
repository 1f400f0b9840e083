// Copyright (c) 2025 Joshua Skootsky
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.
//
// Alternatively, you can license this code under a commercial license.
// Contact: joshua.skootsky@gmail.com

package ringbuffer

// Slot is an internal buffer slot holding one payload. Slots are padded
// to a full cache line so that two adjacent slots never share a line
// with each other, avoiding false sharing between publishers or
// consumers operating on neighboring indices.
//
// The padding band is sized for the common case of payloads no larger
// than a cache line; a T larger than DefaultCacheLineSize will still
// behave correctly but will span more than one line.
type Slot[T any] struct {
	content T
	_       [cacheLinePad]byte
}
