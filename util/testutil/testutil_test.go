package testutil

import (
	"testing"

	"github.com/Comcast/ocremote/core"
)

type Person struct {
	Name string
	Age  int
}

func TestJS(t *testing.T) {
	tests := []struct {
		name string
		arg  interface{}
		want string
	}{
		{
			name: "simple struct",
			arg:  Person{"John Doe", 30},
			want: `{"Name":"John Doe","Age":30}`,
		},
		{
			name: "variant",
			arg:  core.NewList(core.Number(3), core.Text("r")),
			want: `[3,"r"]`,
		},
		{
			name: "result",
			arg:  core.Result{core.Bool(true), core.Nil{}},
			want: `[true,null]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JS(tt.arg); got != tt.want {
				t.Errorf("JS() = %v, want %v", got, tt.want)
			}
		})
	}
}
