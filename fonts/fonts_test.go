package fonts

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadBuiltin(t *testing.T) {
	for _, name := range Builtin() {
		data, err := Load("builtin:"+name, "")
		if err != nil {
			t.Fatalf("读取内置字体 %s 失败: %v", name, err)
		}
		if len(data) == 0 {
			t.Fatalf("内置字体 %s 为空", name)
		}
	}
	if _, err := Load("builtin:Nope", ""); err == nil {
		t.Fatalf("未知的内置字体应当报错")
	}
}

func TestLoadRelativePath(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.ttf"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	data, err := Load("a.ttf", dir)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if string(data) != "x" {
		t.Fatalf("内容不符: %q", data)
	}
}
