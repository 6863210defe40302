// SPDX-License-Identifier: AGPL-3.0-or-later
// TETRAHub - Decode TETRA downlink and uplink traffic in a single binary
// Copyright (C) 2024-2026 Jacob McSwain
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// The source code is available at <https://github.com/USA-RedDragon/TETRAHub>

// Package l3 parses the layers above the MAC: LLC basic link, MLE, CMCE, MM
// and SDS. Each layer wraps the previous one by value; parsing stops at the
// deepest discriminator it understands and leaves the rest opaque.
package l3

import (
	"errors"
	"fmt"

	"github.com/USA-RedDragon/TETRAHub/internal/bits"
)

var (
	// ErrDuplicateTypeElement indicates a Type 3/4 element identifier that
	// repeats within one block.
	ErrDuplicateTypeElement = errors.New("type 3/4 element identifier repeated")
	// ErrUnknownTypeElement indicates an element identifier outside the set
	// the enclosing PDU allows.
	ErrUnknownTypeElement = errors.New("type 3/4 element identifier not allowed here")
)

// ElementIdentifier is the 4-bit identifier of a Type 3/4 element.
type ElementIdentifier uint8

// Type34Element is an unparsed Type 3 or Type 4 element.
type Type34Element struct {
	Unparsed *bits.BitVector
	// RepeatedElements is 1 for Type 3 elements and the 6-bit repeat count
	// for Type 4 elements.
	RepeatedElements uint8
}

// Type234Parser walks the optional element part of a PDU: the O-bit gates
// everything; Type 2 elements are each gated by a P-bit; Type 3/4 elements
// follow while the M-bit is set.
type Type234Parser struct {
	present  bool
	allowed3 map[ElementIdentifier]bool
	allowed4 map[ElementIdentifier]bool
}

// NewType234Parser consumes the O-bit and prepares the allowed element sets.
func NewType234Parser(data *bits.BitVector, allowed3, allowed4 []ElementIdentifier) *Type234Parser {
	p := &Type234Parser{
		present:  data.Take(1) == 1,
		allowed3: make(map[ElementIdentifier]bool, len(allowed3)),
		allowed4: make(map[ElementIdentifier]bool, len(allowed4)),
	}
	for _, id := range allowed3 {
		p.allowed3[id] = true
	}
	for _, id := range allowed4 {
		p.allowed4[id] = true
	}
	return p
}

// ParseType2 consumes one Type 2 element slot. When the O-bit was clear the
// slot is skipped entirely and nil is returned; otherwise the P-bit decides
// presence.
func ParseType2[T any](p *Type234Parser, data *bits.BitVector, parse func(*bits.BitVector) T) *T {
	if !p.present {
		return nil
	}
	if data.Take(1) == 0 {
		return nil
	}
	v := parse(data)
	return &v
}

// ParseType34 consumes the trailing Type 3/4 elements.
func (p *Type234Parser) ParseType34(data *bits.BitVector) (map[ElementIdentifier]Type34Element, error) {
	if !p.present {
		return nil, nil
	}

	elements := map[ElementIdentifier]Type34Element{}
	for data.BitsLeft() > 0 {
		if data.Take(1) == 0 {
			// M-bit clear: no more elements
			break
		}
		id := ElementIdentifier(data.Take(4))
		lengthIndicator := int(data.Take(11))
		if err := data.Err(); err != nil {
			return elements, err
		}

		switch {
		case p.allowed3[id]:
			if _, dup := elements[id]; dup {
				return elements, fmt.Errorf("element %d: %w", id, ErrDuplicateTypeElement)
			}
			elements[id] = Type34Element{Unparsed: data.TakeVector(lengthIndicator), RepeatedElements: 1}
		case p.allowed4[id]:
			repeated := uint8(data.Take(6))
			if _, dup := elements[id]; dup {
				return elements, fmt.Errorf("element %d: %w", id, ErrDuplicateTypeElement)
			}
			elements[id] = Type34Element{Unparsed: data.TakeVector(lengthIndicator - 6), RepeatedElements: repeated}
		default:
			return elements, fmt.Errorf("element %d: %w", id, ErrUnknownTypeElement)
		}
		if err := data.Err(); err != nil {
			return elements, err
		}
	}
	return elements, data.Err()
}
