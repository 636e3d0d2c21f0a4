package domain

import (
	"encoding/json"
	"strconv"
)

// Ceiling is the maximum number of winners a gift (or a scope of a gift) may
// have. The zero value is Unlimited.
type Ceiling struct {
	limited bool
	max     int
}

func Unlimited() Ceiling {
	return Ceiling{}
}

func Limited(max int) Ceiling {
	if max < 0 {
		max = 0
	}

	return Ceiling{limited: true, max: max}
}

// CeilingFromNullable converts a stored max_winners column. NULL is always
// unlimited; 0 is unlimited only when zeroUnlimited is set.
func CeilingFromNullable(max *int, zeroUnlimited bool) Ceiling {
	if max == nil {
		return Unlimited()
	}
	if *max == 0 && zeroUnlimited {
		return Unlimited()
	}

	return Limited(*max)
}

func (c Ceiling) IsUnlimited() bool {
	return !c.limited
}

// Max returns the limit. It is meaningless for an unlimited ceiling.
func (c Ceiling) Max() int {
	return c.max
}

// Allows reports whether one more winner fits when count winners exist.
func (c Ceiling) Allows(count int) bool {
	return !c.limited || count < c.max
}

// Nullable is the storage form of the ceiling.
func (c Ceiling) Nullable() *int {
	if !c.limited {
		return nil
	}
	max := c.max

	return &max
}

func (c Ceiling) String() string {
	if !c.limited {
		return "unlimited"
	}

	return strconv.Itoa(c.max)
}

func (c Ceiling) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Nullable())
}

func (c *Ceiling) UnmarshalJSON(data []byte) error {
	var max *int
	if err := json.Unmarshal(data, &max); err != nil {
		return err
	}
	if max == nil {
		*c = Unlimited()
		return nil
	}
	*c = Limited(*max)

	return nil
}
