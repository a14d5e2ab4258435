package cache

import (
	"strings"
	"testing"

	"github.com/goliatone/go-careteam-sync/pkg/testsupport"
)

// keyScenario represents a test scenario loaded from fixtures
type keyScenario struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Cases       []keyCase `json:"cases"`
}

type keyCase struct {
	Operation   string `json:"operation"`
	Args        []any  `json:"args"`
	ExpectedKey string `json:"expectedKey"`
}

type keyFixtures struct {
	Scenarios []keyScenario `json:"scenarios"`
}

func joinWithSeparator(parts ...string) string {
	return strings.Join(parts, KeySeparator)
}

func TestDefaultKeySerializer_Fixtures(t *testing.T) {
	fixtures := testsupport.FixtureJSON[keyFixtures](t, "key_scenarios.json")

	serializer := NewDefaultKeySerializer()
	for _, scenario := range fixtures.Scenarios {
		t.Run(scenario.Name, func(t *testing.T) {
			for _, tc := range scenario.Cases {
				got := serializer.SerializeKey(tc.Operation, tc.Args...)
				if got != tc.ExpectedKey {
					t.Errorf("SerializeKey(%s, %v) = %v, want %v", tc.Operation, tc.Args, got, tc.ExpectedKey)
				}
			}
		})
	}
}

func TestDefaultKeySerializer_BasicTypes(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	tests := []struct {
		name      string
		operation string
		args      []any
		want      string
	}{
		{
			name:      "no args",
			operation: "users.getUserIds",
			args:      []any{},
			want:      "users.getUserIds",
		},
		{
			name:      "single string",
			operation: "messages.getUserMessages",
			args:      []any{"u1"},
			want:      joinWithSeparator("messages.getUserMessages", "u1"),
		},
		{
			name:      "multiple basic types",
			operation: "messages.page",
			args:      []any{1, "u1", true, 3.5},
			want:      joinWithSeparator("messages.page", "1", "u1", "true", "3.5"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey(tt.operation, tt.args...)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_NilValues(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	tests := []struct {
		name string
		args []any
		want string
	}{
		{
			name: "single nil collapses to bare key",
			args: []any{nil},
			want: "op",
		},
		{
			name: "nil pointer",
			args: []any{(*int)(nil)},
			want: joinWithSeparator("op", "nil"),
		},
		{
			name: "nil slice",
			args: []any{([]string)(nil)},
			want: joinWithSeparator("op", "slice:nil"),
		},
		{
			name: "nil map",
			args: []any{(map[string]int)(nil)},
			want: joinWithSeparator("op", "map:nil"),
		},
		{
			name: "nil among others",
			args: []any{"u1", nil},
			want: joinWithSeparator("op", "u1", "nil"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey("op", tt.args...)
			if got != tt.want {
				t.Errorf("SerializeKey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultKeySerializer_Collections(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	tests := []struct {
		name string
		arg  any
		want string
	}{
		{name: "empty slice", arg: []int{}, want: "slice[0]:{}"},
		{name: "string slice", arg: []string{"u1", "u2"}, want: "slice[2]:{u1,u2}"},
		{name: "nested slice", arg: [][]int{{1, 2}, {3}}, want: "slice[2]:{slice[2]:{1,2},slice[1]:{3}}"},
		{name: "array", arg: [2]string{"a", "b"}, want: "array[2]:{a,b}"},
		{name: "empty map", arg: map[string]int{}, want: "map[0]:{}"},
		{name: "map sorted", arg: map[string]int{"to": 2, "agent": 1}, want: "map[2]:{agent=1,to=2}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serializer.SerializeKey("op", tt.arg)
			want := joinWithSeparator("op", tt.want)
			if got != want {
				t.Errorf("SerializeKey() = %v, want %v", got, want)
			}
		})
	}
}

func TestDefaultKeySerializer_Structs(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	type sendArgs struct {
		To      string
		Message string
		agent   string // unexported field should be ignored
	}

	got := serializer.SerializeKey("messages.sendMessage", sendArgs{To: "u1", Message: "hi", agent: "x"})
	want := joinWithSeparator("messages.sendMessage", "struct:{To:u1,Message:hi}")
	if got != want {
		t.Errorf("SerializeKey() = %v, want %v", got, want)
	}

	ptr := &sendArgs{To: "u1", Message: "hi"}
	if got := serializer.SerializeKey("messages.sendMessage", ptr); got != want {
		t.Errorf("pointer should serialize like its value: %v != %v", got, want)
	}
}

func TestDefaultKeySerializer_FunctionsAndChannels(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	fn := func() {}
	key1 := serializer.SerializeKey("op", fn)
	key2 := serializer.SerializeKey("op", fn)
	if key1 != key2 {
		t.Errorf("function serialization should be stable: %v != %v", key1, key2)
	}
	if !strings.HasPrefix(key1, joinWithSeparator("op", "func")+":") {
		t.Errorf("function should use func: prefix, got: %v", key1)
	}

	ch := make(chan int)
	if key := serializer.SerializeKey("op", ch); !strings.HasPrefix(key, joinWithSeparator("op", "chan")+":") {
		t.Errorf("channel should use chan: prefix, got: %v", key)
	}
}

func TestDefaultKeySerializer_Stability(t *testing.T) {
	serializer := NewDefaultKeySerializer()

	args := []any{"u1", []int{1, 2, 3}, map[string]int{"a": 1, "b": 2, "c": 3}}

	key1 := serializer.SerializeKey("op", args...)
	for i := 0; i < 20; i++ {
		if key := serializer.SerializeKey("op", args...); key != key1 {
			t.Fatalf("key serialization should be stable: %v != %v", key, key1)
		}
	}
}

func BenchmarkDefaultKeySerializer(b *testing.B) {
	serializer := NewDefaultKeySerializer()
	args := []any{"u1", []int{1, 2, 3}, map[string]int{"test": 1}}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		serializer.SerializeKey("messages.getUserMessages", args...)
	}
}
