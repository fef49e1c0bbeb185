package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ValueTestSuite struct {
	suite.Suite
}

func TestValueSuite(t *testing.T) {
	suite.Run(t, new(ValueTestSuite))
}

func (suite *ValueTestSuite) TestKinds() {
	suite.Equal(KindInt, IntValue(5).Kind())
	suite.Equal(KindFloat, FloatValue(2.5).Kind())
	suite.Equal(KindString, StringValue("SMA").Kind())
	suite.Equal(KindInt, Value{}.Kind())
}

func (suite *ValueTestSuite) TestNumericAccessors() {
	suite.Equal(int64(5), IntValue(5).Int())
	suite.Equal(5.0, IntValue(5).Float())
	suite.Equal(int64(2), FloatValue(2.9).Int())
	suite.Equal(2.9, FloatValue(2.9).Float())
	suite.True(IntValue(1).IsNumeric())
	suite.False(StringValue("x").IsNumeric())
}

func (suite *ValueTestSuite) TestEqual() {
	suite.True(IntValue(5).Equal(IntValue(5)))
	suite.False(IntValue(5).Equal(FloatValue(5)))
	suite.False(IntValue(5).Equal(IntValue(6)))
	suite.True(StringValue("EMA").Equal(StringValue("EMA")))
}

func (suite *ValueTestSuite) TestMarshalJSON() {
	cases := []struct {
		value Value
		want  string
	}{
		{IntValue(12), "12"},
		{FloatValue(0.5), "0.5"},
		{StringValue("SMA"), `"SMA"`},
	}

	for _, c := range cases {
		data, err := json.Marshal(c.value)
		suite.NoError(err)
		suite.Equal(c.want, string(data))
	}
}

func (suite *ValueTestSuite) TestUnmarshalJSONInt() {
	var v Value
	suite.NoError(json.Unmarshal([]byte("12"), &v))
	suite.Equal(KindInt, v.Kind())
	suite.Equal(int64(12), v.Int())
}

func (suite *ValueTestSuite) TestUnmarshalJSONFloat() {
	var v Value
	suite.NoError(json.Unmarshal([]byte("12.5"), &v))
	suite.Equal(KindFloat, v.Kind())
	suite.Equal(12.5, v.Float())
}

func (suite *ValueTestSuite) TestUnmarshalJSONExponentIsFloat() {
	var v Value
	suite.NoError(json.Unmarshal([]byte("1e2"), &v))
	suite.Equal(KindFloat, v.Kind())
	suite.Equal(100.0, v.Float())
}

func (suite *ValueTestSuite) TestUnmarshalJSONString() {
	var v Value
	suite.NoError(json.Unmarshal([]byte(`"EMA"`), &v))
	suite.Equal(KindString, v.Kind())
	suite.Equal("EMA", v.Str())
}

func (suite *ValueTestSuite) TestUnmarshalJSONRejectsComposite() {
	var v Value
	suite.Error(json.Unmarshal([]byte(`[1,2]`), &v))
	suite.Error(json.Unmarshal([]byte(`true`), &v))
}

func (suite *ValueTestSuite) TestRoundTripThroughParams() {
	params := Params{
		"fast_period": IntValue(5),
		"threshold":   FloatValue(0.25),
		"ma_type":     StringValue("EMA"),
	}

	data, err := json.Marshal(params)
	suite.NoError(err)

	var decoded Params
	suite.NoError(json.Unmarshal(data, &decoded))
	suite.Len(decoded, 3)

	for key, want := range params {
		suite.True(decoded[key].Equal(want), "key %s", key)
	}
}
