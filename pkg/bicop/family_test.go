package bicop

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestFamilies(t *testing.T) {
	list := Families()
	require.Len(t, list, 12)
	assert.Equal(t, Indep, list[0])
	assert.Equal(t, TLL, list[len(list)-1])
	for _, f := range list {
		assert.True(t, f.Valid())
		assert.Equal(t, []int{0, 90, 180, 270}, f.Rotations())
	}
	assert.False(t, Family(-1).Valid())
	assert.False(t, Family(12).Valid())
}

func TestFamily_String(t *testing.T) {
	assert.Equal(t, "gaussian", Gaussian.String())
	assert.Equal(t, "bb8", BB8.String())
	assert.Equal(t, "family(99)", Family(99).String())
}

func TestParseFamily(t *testing.T) {
	tests := []struct {
		in   string
		want Family
	}{
		{"gaussian", Gaussian},
		{"Clayton", Clayton},
		{" joe ", Joe},
		{"independence", Indep},
		{"normal", Gaussian},
		{"t", Student},
		{"tll0", TLL},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFamily(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFamily("bb9")
	assert.ErrorIs(t, err, ErrUnknownFamily)
}

func TestParseFamily_RoundTripsNames(t *testing.T) {
	for _, f := range Families() {
		got, err := ParseFamily(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
}

func TestFamily_NumParams(t *testing.T) {
	lo, hi := Indep.NumParams()
	assert.Equal(t, 0, lo)
	assert.Equal(t, 0, hi)

	lo, hi = Student.NumParams()
	assert.Equal(t, 2, lo)
	assert.Equal(t, 2, hi)

	lo, hi = TLL.NumParams()
	assert.Equal(t, 0, lo)
	assert.Negative(t, hi)

	for _, f := range Families() {
		if f.IsOnePar() {
			lo, hi = f.NumParams()
			assert.Equal(t, 1, lo, f.String())
			assert.Equal(t, 1, hi, f.String())
		}
		if f.IsTwoPar() {
			lo, hi = f.NumParams()
			assert.Equal(t, 2, lo, f.String())
			assert.Equal(t, 2, hi, f.String())
		}
	}
}

func TestFamily_Groups(t *testing.T) {
	assert.True(t, Gaussian.IsElliptical())
	assert.True(t, Student.IsElliptical())
	assert.False(t, Clayton.IsElliptical())

	assert.True(t, BB7.IsBB())
	assert.True(t, BB7.IsArchimedean())
	assert.True(t, BB7.HasLowerTail())
	assert.True(t, BB7.HasUpperTail())

	assert.True(t, Clayton.HasLowerTail())
	assert.False(t, Clayton.HasUpperTail())
	assert.True(t, Gumbel.HasUpperTail())

	assert.True(t, Frank.IsRotationless())
	assert.True(t, Frank.FlipsByRotation())
	assert.False(t, Gaussian.FlipsByRotation())

	assert.True(t, Indep.IsParametric())
	assert.True(t, Indep.IsNonparametric())
	assert.False(t, TLL.IsParametric())

	assert.Equal(t, []string{"parametric", "elliptical", "rotationless", "one_par", "itau"}, Gaussian.Groups())
	assert.Empty(t, Family(50).Groups())
}

func TestFamily_Bounds(t *testing.T) {
	b := Student.Bounds()
	require.Len(t, b, 2)
	assert.Equal(t, "nu", b[1].Name)
	assert.Equal(t, 2.0, b[1].Lower)

	b[0].Lower = 5
	assert.Equal(t, -1.0, Student.Bounds()[0].Lower)

	assert.Equal(t, "rho in [-1, 1], nu in [2, 50]", Student.DescribeBounds())
	assert.Equal(t, "none", Indep.DescribeBounds())
	assert.True(t, Bound{Lower: 0, Upper: 1}.Contains(1))
	assert.False(t, Bound{Lower: 0, Upper: 1}.Contains(math.Nextafter(1, 2)))
}

func TestFamily_JSON(t *testing.T) {
	out, err := json.Marshal([]Family{Clayton, BB1})
	require.NoError(t, err)
	assert.Equal(t, `["clayton","bb1"]`, string(out))

	var got []Family
	require.NoError(t, json.Unmarshal([]byte(`["frank", 2, "7"]`), &got))
	assert.Equal(t, []Family{Frank, Student, BB1}, got)

	var f Family
	assert.ErrorIs(t, json.Unmarshal([]byte(`"unknown"`), &f), ErrUnknownFamily)
	assert.ErrorIs(t, json.Unmarshal([]byte(`99`), &f), ErrUnknownFamily)

	_, err = json.Marshal(Family(99))
	assert.Error(t, err)
}

func TestFamily_YAML(t *testing.T) {
	out, err := yaml.Marshal(map[string]Family{"f": Joe})
	require.NoError(t, err)
	assert.Equal(t, "f: joe\n", string(out))

	var got map[string]Family
	require.NoError(t, yaml.Unmarshal([]byte("a: gumbel\nb: 1\n"), &got))
	assert.Equal(t, Gumbel, got["a"])
	assert.Equal(t, Gaussian, got["b"])
}

func TestFamilyFromCode(t *testing.T) {
	f, err := FamilyFromCode(3)
	require.NoError(t, err)
	assert.Equal(t, Clayton, f)

	_, err = FamilyFromCode(-1)
	assert.ErrorIs(t, err, ErrValidation)

	f, err = FamilyFromCode(1001)
	require.NoError(t, err)
	assert.Equal(t, TLL, f)

	_, err = FamilyFromCode(1002)
	assert.ErrorIs(t, err, ErrUnknownFamily)

	var got Family
	require.NoError(t, json.Unmarshal([]byte(`1001`), &got))
	assert.Equal(t, TLL, got)
}

func TestNewFromCode(t *testing.T) {
	b, err := NewFromCode(1, []float64{1}, 90)
	require.NoError(t, err)
	assert.Equal(t, Gaussian, b.Family())
	assert.Equal(t, 90, b.Rotation())
	assert.Equal(t, []float64{1}, b.Parameters())

	_, err = NewFromCode(2, []float64{1}, 180)
	assert.ErrorIs(t, err, ErrParameterCount)
}
