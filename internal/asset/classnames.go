package asset

// Built-in Unity class identifiers this reader names explicitly. Anything
// else renders as ClassID(<n>).
const (
	ClassGameObject             int32 = 1
	ClassComponent              int32 = 2
	ClassTransform              int32 = 4
	ClassCamera                 int32 = 20
	ClassMaterial               int32 = 21
	ClassRenderer               int32 = 23
	ClassTexture2D              int32 = 28
	ClassMeshFilter             int32 = 33
	ClassMesh                   int32 = 43
	ClassShader                 int32 = 48
	ClassMeshRenderer           int32 = 64
	ClassGUITexture             int32 = 65
	ClassAudioSource            int32 = 81
	ClassGUIText                int32 = 92
	ClassRenderTexture          int32 = 104
	ClassLight                  int32 = 108
	ClassAnimation              int32 = 111
	ClassMonoBehaviour          int32 = 114
	ClassMonoScript             int32 = 115
	ClassFlare                  int32 = 124
	ClassFont                   int32 = 128
	ClassPolygonCollider2D      int32 = 137
	ClassParticleSystem         int32 = 198
	ClassParticleSystemRenderer int32 = 199
	ClassSprite                 int32 = 213
	ClassCanvas                 int32 = 222
	ClassCanvasRenderer         int32 = 223
	ClassRectTransform          int32 = 224
	ClassCanvasGroup            int32 = 225
)

var classNames = map[int32]string{
	ClassGameObject:             "GameObject",
	ClassComponent:              "Component",
	ClassTransform:              "Transform",
	ClassCamera:                 "Camera",
	ClassMaterial:               "Material",
	ClassRenderer:               "Renderer",
	ClassTexture2D:              "Texture2D",
	ClassMeshFilter:             "MeshFilter",
	ClassMesh:                   "Mesh",
	ClassShader:                 "Shader",
	ClassMeshRenderer:           "MeshRenderer",
	ClassGUITexture:             "GUITexture",
	ClassAudioSource:            "AudioSource",
	ClassGUIText:                "GUIText",
	ClassRenderTexture:          "RenderTexture",
	ClassLight:                  "Light",
	ClassAnimation:              "Animation",
	ClassMonoBehaviour:          "MonoBehaviour",
	ClassMonoScript:             "MonoScript",
	ClassFlare:                  "Flare",
	ClassFont:                   "Font",
	ClassPolygonCollider2D:      "PolygonCollider2D",
	ClassParticleSystem:         "ParticleSystem",
	ClassParticleSystemRenderer: "ParticleSystemRenderer",
	ClassSprite:                 "Sprite",
	ClassCanvas:                 "Canvas",
	ClassCanvasRenderer:         "CanvasRenderer",
	ClassRectTransform:          "RectTransform",
	ClassCanvasGroup:            "CanvasGroup",
}

// ClassName returns the human-readable name for a built-in class-id, or a
// placeholder of the form ClassID(n) for anything not in the table.
func ClassName(id int32) string {
	if name, ok := classNames[id]; ok {
		return name
	}
	return classIDPlaceholder(id)
}
